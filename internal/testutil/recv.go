package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roach88/rill/internal/transport"
	"github.com/roach88/rill/internal/waiting"
)

// DefaultTimeout bounds every blocking helper in this package.
const DefaultTimeout = 2 * time.Second

// Recv receives one value from rx or fails the test after DefaultTimeout.
func Recv[T any](t testing.TB, rx *transport.Receiver[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	v, err := rx.RecvContext(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	return v
}

// RequireClosed fails the test unless rx reports ErrClosed within
// DefaultTimeout. Values still queued are drained and returned.
func RequireClosed[T any](t testing.TB, rx *transport.Receiver[T]) []T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	var rest []T
	for {
		v, err := rx.RecvContext(ctx)
		if errors.Is(err, transport.ErrClosed) {
			return rest
		}
		if err != nil {
			t.Fatalf("waiting for close: %v", err)
		}
		rest = append(rest, v)
	}
}

// RequireEmpty fails the test if rx yields a value within d.
func RequireEmpty[T any](t testing.TB, rx *transport.Receiver[T], d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	v, err := rx.RecvContext(ctx)
	if err == nil {
		t.Fatalf("unexpected value %v", v)
	}
}

// Await waits for p to complete or fails the test after DefaultTimeout.
func Await[T any](t testing.TB, p *waiting.Pending[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	v, err := p.WaitContext(ctx)
	if err != nil {
		t.Fatalf("acknowledgment: %v", err)
	}
	return v
}

// Join waits for j or fails the test after DefaultTimeout.
func Join(t testing.TB, j *waiting.Join) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	if err := j.WaitContext(ctx); err != nil {
		t.Fatalf("join: %v", err)
	}
}
