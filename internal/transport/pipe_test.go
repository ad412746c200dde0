package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe_FIFO(t *testing.T) {
	tx, rx := NewPipe[int]()

	for i := 1; i <= 3; i++ {
		require.NoError(t, tx.Send(i))
	}
	assert.Equal(t, 3, rx.Len())

	for want := 1; want <= 3; want++ {
		got, err := rx.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPipe_TryRecv_Empty(t *testing.T) {
	_, rx := NewPipe[int]()

	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPipe_Recv_BlocksUntilAvailable(t *testing.T) {
	tx, rx := NewPipe[string]()
	done := make(chan string)

	go func() {
		v, err := rx.Recv()
		if err == nil {
			done <- v
		}
	}()

	// Give goroutine time to block
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tx.Send("hello"))

	select {
	case v := <-done:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Send")
	}
}

func TestPipe_SenderClose_DrainsThenClosed(t *testing.T) {
	tx, rx := NewPipe[int]()

	require.NoError(t, tx.Send(7))
	tx.Close()
	tx.Close() // idempotent

	v, err := rx.Recv()
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = rx.Recv()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, tx.Send(8), ErrClosed)
}

func TestPipe_SenderClose_WakesBlockedReceiver(t *testing.T) {
	tx, rx := NewPipe[int]()
	done := make(chan error)

	go func() {
		_, err := rx.Recv()
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	tx.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}

func TestPipe_ReceiverClose_RejectsSends(t *testing.T) {
	tx, rx := NewPipe[int]()

	require.NoError(t, tx.Send(1))
	rx.Close()

	assert.ErrorIs(t, tx.Send(2), ErrClosed)
	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, ErrClosed, "queued values are discarded")
	assert.Equal(t, 0, rx.Len())
}

func TestPipe_ReadyCoalesces(t *testing.T) {
	tx, rx := NewPipe[int]()

	for i := 0; i < 5; i++ {
		require.NoError(t, tx.Send(i))
	}

	// One token for five sends, re-armed after each partial drain.
	for i := 0; i < 5; i++ {
		select {
		case <-rx.Ready():
		case <-time.After(time.Second):
			t.Fatalf("no readiness token before value %d", i)
		}
		v, err := rx.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	select {
	case <-rx.Ready():
		t.Fatal("readiness token left behind on empty pipe")
	default:
	}
}

func TestPipe_RecvContext_Cancelled(t *testing.T) {
	_, rx := NewPipe[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rx.RecvContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipe_ConcurrentSenders(t *testing.T) {
	tx, rx := NewPipe[int]()
	const senders, perSender = 8, 100

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_ = tx.Send(i)
			}
		}()
	}
	wg.Wait()
	tx.Close()

	count := 0
	for {
		if _, err := rx.Recv(); err != nil {
			assert.ErrorIs(t, err, ErrClosed)
			break
		}
		count++
	}
	assert.Equal(t, senders*perSender, count)
}

func TestPipe_CloseDrain(t *testing.T) {
	tx, rx := NewPipe[int]()

	require.NoError(t, tx.Send(1))
	require.NoError(t, tx.Send(2))

	assert.Equal(t, []int{1, 2}, rx.CloseDrain())
	assert.ErrorIs(t, tx.Send(3), ErrClosed)
	assert.Empty(t, rx.CloseDrain(), "second close returns nothing")
}
