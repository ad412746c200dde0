package harness

import (
	"context"
	"fmt"

	"github.com/roach88/rill/internal/engine"
	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/signal"
	"github.com/roach88/rill/internal/transport"
)

// receiver is a client receive endpoint with its static type erased.
type receiver interface {
	recv(ctx context.Context) (ir.Value, error)
	close()
}

// sender is a client send endpoint with its static type erased.
type sender interface {
	send(v ir.Value) error
	close()
}

type typedReceiver[T ir.Primitive] struct {
	rx *transport.Receiver[T]
}

func (r typedReceiver[T]) recv(ctx context.Context) (ir.Value, error) {
	v, err := r.rx.RecvContext(ctx)
	if err != nil {
		return nil, err
	}
	return ir.Wrap(v), nil
}

func (r typedReceiver[T]) close() { r.rx.Close() }

type typedSender[T ir.Primitive] struct {
	tx *transport.Sender[T]
}

func (s typedSender[T]) send(v ir.Value) error { return s.tx.Send(ir.Unwrap[T](v)) }

func (s typedSender[T]) close() { s.tx.Close() }

// listenNode attaches a listener to n using the Go type that matches n's tag
// and waits for the worker to acknowledge it.
func listenNode(ctx context.Context, e *engine.Engine, n *ir.Node) (receiver, error) {
	switch n.Type() {
	case ir.TypeUint64:
		return listenTyped[uint64](ctx, e, n)
	case ir.TypeInt64:
		return listenTyped[int64](ctx, e, n)
	case ir.TypeBool:
		return listenTyped[bool](ctx, e, n)
	case ir.TypeString:
		return listenTyped[string](ctx, e, n)
	}
	return nil, fmt.Errorf("unsupported type %s", n.Type())
}

func listenTyped[T ir.Primitive](ctx context.Context, e *engine.Engine, n *ir.Node) (receiver, error) {
	sig, err := signal.FromNode[T](n)
	if err != nil {
		return nil, err
	}
	p, err := engine.Listen(e, sig)
	if err != nil {
		return nil, err
	}
	rx, err := p.WaitContext(ctx)
	if err != nil {
		return nil, err
	}
	return typedReceiver[T]{rx: rx}, nil
}

// emitInput attaches an emitter for (ref, t) and waits for the worker to
// acknowledge it.
func emitInput(ctx context.Context, e *engine.Engine, ref ir.InputRef, t ir.Type) (sender, error) {
	switch t {
	case ir.TypeUint64:
		return emitTyped[uint64](ctx, e, ref)
	case ir.TypeInt64:
		return emitTyped[int64](ctx, e, ref)
	case ir.TypeBool:
		return emitTyped[bool](ctx, e, ref)
	case ir.TypeString:
		return emitTyped[string](ctx, e, ref)
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

func emitTyped[T ir.Primitive](ctx context.Context, e *engine.Engine, ref ir.InputRef) (sender, error) {
	p, err := engine.Emit[T](e, ref)
	if err != nil {
		return nil, err
	}
	tx, err := p.WaitContext(ctx)
	if err != nil {
		return nil, err
	}
	return typedSender[T]{tx: tx}, nil
}
