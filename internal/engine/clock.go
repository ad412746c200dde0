package engine

import "sync/atomic"

// Clock is the worker's monotonic logical clock.
//
// Each applied update takes the next sequence number. The worker is the only
// writer; readers (Stats, tests) may load it from any goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next increments the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number (0 if none).
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
