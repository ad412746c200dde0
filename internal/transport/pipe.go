package transport

import (
	"context"
	"sync"
)

// pipe is a thread-safe unbounded FIFO shared by one Sender and one Receiver.
//
// Readiness is published on signal (buffered, size 1): sends coalesce into a
// single token, and closing either side closes the channel so every waiter
// wakes. Consumers always re-check with tryRecv after waking.
type pipe[T any] struct {
	mu             sync.Mutex
	items          []T
	senderClosed   bool
	receiverClosed bool
	signalClosed   bool
	signal         chan struct{}
}

// NewPipe creates an unbounded channel and returns its two endpoints.
func NewPipe[T any]() (*Sender[T], *Receiver[T]) {
	p := &pipe[T]{
		items:  make([]T, 0, 16),
		signal: make(chan struct{}, 1),
	}
	return &Sender[T]{p: p}, &Receiver[T]{p: p}
}

func (p *pipe[T]) send(v T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.senderClosed || p.receiverClosed {
		return ErrClosed
	}
	p.items = append(p.items, v)
	p.notifyLocked()
	return nil
}

// notifyLocked publishes a readiness token without blocking.
func (p *pipe[T]) notifyLocked() {
	if p.signalClosed {
		return
	}
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *pipe[T]) tryRecv() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	if p.receiverClosed {
		return zero, ErrClosed
	}
	if len(p.items) > 0 {
		v := p.items[0]
		p.items[0] = zero // release references held by the backing array
		if len(p.items) == 1 {
			p.items = p.items[:0]
		} else {
			p.items = p.items[1:]
			// Coalesced sends left more behind; keep the reader awake.
			p.notifyLocked()
		}
		return v, nil
	}
	if p.senderClosed {
		return zero, ErrClosed
	}
	return zero, ErrNotReady
}

func (p *pipe[T]) closeSender() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.senderClosed {
		return
	}
	p.senderClosed = true
	p.closeSignalLocked()
}

// closeReceiver rejects further sends and returns whatever was still queued.
func (p *pipe[T]) closeReceiver() []T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.receiverClosed {
		return nil
	}
	p.receiverClosed = true
	rest := p.items
	p.items = nil
	p.closeSignalLocked()
	return rest
}

func (p *pipe[T]) closeSignalLocked() {
	if !p.signalClosed {
		p.signalClosed = true
		close(p.signal)
	}
}

func (p *pipe[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Sender is the producing endpoint of a pipe. Safe for concurrent use.
type Sender[T any] struct {
	p *pipe[T]
}

// Send enqueues v. It never blocks.
// Returns ErrClosed if either endpoint has been closed.
func (s *Sender[T]) Send(v T) error {
	return s.p.send(v)
}

// Close marks the end of the stream. Idempotent.
func (s *Sender[T]) Close() {
	s.p.closeSender()
}

// Receiver is the consuming endpoint of a pipe.
type Receiver[T any] struct {
	p *pipe[T]
}

// Recv blocks until a value is available or the pipe is closed.
func (r *Receiver[T]) Recv() (T, error) {
	for {
		v, err := r.p.tryRecv()
		if err != ErrNotReady {
			return v, err
		}
		<-r.p.signal
	}
}

// RecvContext is Recv with cancellation. On ctx expiry it returns ctx.Err().
func (r *Receiver[T]) RecvContext(ctx context.Context) (T, error) {
	for {
		v, err := r.p.tryRecv()
		if err != ErrNotReady {
			return v, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-r.p.signal:
		}
	}
}

// TryRecv returns the next value without blocking, or ErrNotReady.
func (r *Receiver[T]) TryRecv() (T, error) {
	return r.p.tryRecv()
}

// Ready returns a channel that fires when a value may be available.
// Wakes can be spurious; follow up with TryRecv.
func (r *Receiver[T]) Ready() <-chan struct{} {
	return r.p.signal
}

// Len returns the number of queued values.
func (r *Receiver[T]) Len() int {
	return r.p.len()
}

// Close drops queued values and rejects further sends. Idempotent.
func (r *Receiver[T]) Close() {
	clear(r.p.closeReceiver())
}

// CloseDrain closes the receiver like Close but hands back the values that
// were still queued, in order. No send can slip in between the drain and
// the close.
func (r *Receiver[T]) CloseDrain() []T {
	return r.p.closeReceiver()
}
