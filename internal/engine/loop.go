package engine

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// Dispatcher moves a closure onto a host context.
//
// Dispatch must not run fn before returning, and must run dispatched
// closures one at a time. It returns false if the host context has shut
// down and fn will never run.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// Loop is a single-writer host context for Go callers.
//
// CRITICAL: All callbacks run in the single goroutine that calls Run.
//
// Thread-safety model:
//   - Dispatch(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Stop(): safe from any goroutine
type Loop struct {
	queue  *queue[func()]
	clock  *Clock
	logger *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger used for callback failures.
func WithLoopLogger(l *slog.Logger) LoopOption {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// NewLoop creates a Loop. Nothing runs until Run is called.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		queue:  newQueue[func()](),
		clock:  NewClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch queues fn to run on the Run goroutine.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the loop has been stopped.
func (l *Loop) Dispatch(fn func()) bool {
	return l.queue.Enqueue(fn)
}

// Run executes dispatched callbacks in FIFO order until ctx is cancelled or
// Stop is called and the queue has drained.
//
// ERROR HANDLING: a panicking callback is logged with its stack and the loop
// moves on to the next one. One bad callback must not take the host down.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop starting")

	for {
		if fn, ok := l.queue.TryDequeue(); ok {
			l.runCallback(fn)
			continue
		}

		if l.queue.Drained() {
			l.logger.Debug("loop stopping: queue closed", "callbacks", l.clock.Current())
			return nil
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			// Signal received - loop back to TryDequeue. The signal channel
			// closes when the queue is closed, so this also fires on Stop.
		}
	}
}

func (l *Loop) runCallback(fn func()) {
	seq := l.clock.Next()
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("callback panicked",
				"seq", seq,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// Stop closes the loop to new callbacks. Run returns once the callbacks
// already queued have run.
func (l *Loop) Stop() {
	l.queue.Close()
}

// Executed returns the number of callbacks Run has started.
func (l *Loop) Executed() int64 {
	return l.clock.Current()
}
