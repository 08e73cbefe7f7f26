package hostjs

import (
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/roach88/hostbridge/internal/engine"
)

// Dispatcher delivers completions onto a goja_nodejs event loop.
//
// Implements engine.Dispatcher. RunOnLoop only queues, so fn never runs
// inside Dispatch, and the loop runs queued jobs one at a time.
type Dispatcher struct {
	loop      *eventloop.EventLoop
	closed    atomic.Bool
	delivered engine.Clock
}

// NewDispatcher creates a Dispatcher for loop.
func NewDispatcher(loop *eventloop.EventLoop) *Dispatcher {
	return &Dispatcher{loop: loop}
}

// Dispatch queues fn on the loop. Returns false once the dispatcher is
// closed or the loop has been terminated.
func (d *Dispatcher) Dispatch(fn func()) bool {
	if d.closed.Load() {
		return false
	}
	return d.loop.RunOnLoop(func(*goja.Runtime) {
		d.delivered.Next()
		fn()
	})
}

// Delivered returns the number of completions that have started running on
// the loop.
func (d *Dispatcher) Delivered() int64 {
	return d.delivered.Current()
}

// Close refuses all further completions.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
}
