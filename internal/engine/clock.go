package engine

import "sync/atomic"

// Clock is a monotonic logical counter.
//
// The Loop stamps every callback it runs with Next(), so the n-th
// completion delivered on a host context carries seq n regardless of which
// worker produced it.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
