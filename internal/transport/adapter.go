package transport

import "github.com/roach88/rill/internal/ir"

// Emitter is the worker's view of a client-fed input channel.
type Emitter interface {
	// Ready is the multiplexer operand for this emitter.
	Ready() <-chan struct{}
	// Receive drains one value. It returns ErrNotReady on a spurious wake
	// and ErrClosed once the client closed its Sender and the queue is empty.
	Receive() (ir.Value, error)
	// Type is the value type the emitter produces.
	Type() ir.Type
	// Release closes the worker side; later client sends fail with ErrClosed.
	Release()
}

// Listener is the worker's view of a client-consumed output channel.
type Listener interface {
	// Accept forwards v to the client. ErrClosed means the client closed
	// its Receiver and the listener should be detached.
	Accept(v ir.Value) error
	// Type is the value type the listener accepts.
	Type() ir.Type
	// Release closes the worker side; the client drains what is queued
	// and then sees ErrClosed.
	Release()
}

type emitter[T ir.Primitive] struct {
	rx *Receiver[T]
}

// NewEmitter adapts the receive endpoint of a client input pipe.
func NewEmitter[T ir.Primitive](rx *Receiver[T]) Emitter {
	return &emitter[T]{rx: rx}
}

func (e *emitter[T]) Ready() <-chan struct{} { return e.rx.Ready() }

func (e *emitter[T]) Receive() (ir.Value, error) {
	v, err := e.rx.TryRecv()
	if err != nil {
		return nil, err
	}
	return ir.Wrap(v), nil
}

func (e *emitter[T]) Type() ir.Type { return ir.TypeOf[T]() }

func (e *emitter[T]) Release() { e.rx.Close() }

type listener[T ir.Primitive] struct {
	tx *Sender[T]
}

// NewListener adapts the send endpoint of a client output pipe.
func NewListener[T ir.Primitive](tx *Sender[T]) Listener {
	return &listener[T]{tx: tx}
}

func (l *listener[T]) Accept(v ir.Value) error {
	return l.tx.Send(ir.Unwrap[T](v))
}

func (l *listener[T]) Type() ir.Type { return ir.TypeOf[T]() }

func (l *listener[T]) Release() { l.tx.Close() }
