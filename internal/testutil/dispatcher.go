package testutil

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ManualDispatcher queues dispatched callbacks until the test pumps them.
//
// It stands in for a host context: Dispatch never runs fn itself, and
// RunPending runs callbacks one at a time on the caller's goroutine. It also
// records whether two callbacks ever ran at once.
//
// Implements engine.Dispatcher.
type ManualDispatcher struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	signal  chan struct{}

	running  bool
	overlaps int
	ran      int
}

// NewManualDispatcher creates an open dispatcher.
func NewManualDispatcher() *ManualDispatcher {
	return &ManualDispatcher{signal: make(chan struct{}, 1)}
}

// Dispatch queues fn. Returns false after Close.
func (d *ManualDispatcher) Dispatch(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	d.pending = append(d.pending, fn)
	select {
	case d.signal <- struct{}{}:
	default:
	}
	return true
}

// RunPending runs queued callbacks, including any queued while it runs,
// until none are left. Returns how many ran.
func (d *ManualDispatcher) RunPending() int {
	n := 0
	for {
		d.mu.Lock()
		if len(d.pending) == 0 {
			d.mu.Unlock()
			return n
		}
		fn := d.pending[0]
		d.pending = d.pending[1:]
		if d.running {
			d.overlaps++
		}
		d.running = true
		d.mu.Unlock()

		fn()

		d.mu.Lock()
		d.running = false
		d.ran++
		d.mu.Unlock()
		n++
	}
}

// RunUntil pumps callbacks until done reports true or timeout elapses.
func (d *ManualDispatcher) RunUntil(timeout time.Duration, done func() bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		d.RunPending()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.New("testutil: condition not met before timeout")
		case <-d.signal:
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Pending returns the number of queued callbacks.
func (d *ManualDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Ran returns the number of callbacks run so far.
func (d *ManualDispatcher) Ran() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ran
}

// Overlaps returns how many callbacks started while another was running.
func (d *ManualDispatcher) Overlaps() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overlaps
}

// Close makes later Dispatch calls fail. Queued callbacks can still run.
func (d *ManualDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}
