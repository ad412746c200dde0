// Package waiting provides one-shot acknowledgment handles.
//
// A Pending carries a value the caller may use right away (a channel
// endpoint, for example) plus a completion signal fired by whoever
// processes the request. Callers choose how to observe it: block with
// Wait, bound the wait with WaitContext, or poll with TryWait.
package waiting

import (
	"context"
	"sync"
)

// Pending is a one-shot acknowledgment bundling a value.
type Pending[T any] struct {
	mu    sync.Mutex
	value T
	done  chan struct{}
	once  sync.Once
}

// Ack is the signaling half of a Pending created by NewPending.
// The zero Ack is a no-op.
type Ack struct {
	fire func()
}

// Signal marks the request complete. Idempotent.
func (a Ack) Signal() {
	if a.fire != nil {
		a.fire()
	}
}

// NewPending returns a Pending holding v and the Ack that completes it.
func NewPending[T any](v T) (*Pending[T], Ack) {
	p := &Pending[T]{value: v, done: make(chan struct{})}
	return p, Ack{fire: p.complete}
}

// Resolver completes a Pending created by NewDeferred.
type Resolver[T any] struct {
	p *Pending[T]
}

// Resolve stores v and marks the request complete. Only the first call has
// any effect.
func (r Resolver[T]) Resolve(v T) {
	if r.p == nil {
		return
	}
	r.p.once.Do(func() {
		r.p.mu.Lock()
		r.p.value = v
		r.p.mu.Unlock()
		close(r.p.done)
	})
}

// NewDeferred returns a Pending whose value is supplied at completion time.
func NewDeferred[T any]() (*Pending[T], Resolver[T]) {
	p := &Pending[T]{done: make(chan struct{})}
	return p, Resolver[T]{p: p}
}

// Completed returns a Pending that is already finished.
func Completed[T any](v T) *Pending[T] {
	p, ack := NewPending(v)
	ack.Signal()
	return p
}

func (p *Pending[T]) complete() {
	p.once.Do(func() { close(p.done) })
}

func (p *Pending[T]) load() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Wait blocks until the request completes and returns the value.
func (p *Pending[T]) Wait() T {
	<-p.done
	return p.load()
}

// WaitContext is Wait bounded by ctx.
func (p *Pending[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.load(), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryWait returns the value and true only if the request already completed.
func (p *Pending[T]) TryWait() (T, bool) {
	select {
	case <-p.done:
		return p.load(), true
	default:
		var zero T
		return zero, false
	}
}

// Immediate returns the bundled value without waiting for completion.
// For a Pending from NewDeferred this is the zero value until resolved.
func (p *Pending[T]) Immediate() T {
	return p.load()
}

// Done is closed when the request completes.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Join waits for a goroutine to exit.
type Join struct {
	done <-chan struct{}
}

// NewJoin wraps a channel closed on exit.
func NewJoin(done <-chan struct{}) *Join {
	return &Join{done: done}
}

// Wait blocks until the goroutine exits.
func (j *Join) Wait() {
	<-j.done
}

// WaitContext is Wait bounded by ctx.
func (j *Join) WaitContext(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the goroutine exits.
func (j *Join) Done() <-chan struct{} {
	return j.done
}
