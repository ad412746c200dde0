package transport

import "errors"

var (
	// ErrClosed reports that the peer endpoint is gone. For a Receiver it is
	// returned only after every queued value has been drained.
	ErrClosed = errors.New("transport: channel closed")

	// ErrNotReady reports that a non-blocking receive found nothing queued.
	ErrNotReady = errors.New("transport: no value ready")
)
