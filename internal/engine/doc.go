// Package engine runs work off the host context and delivers results back
// onto it.
//
// ARCHITECTURE:
//
// Host Context:
// The host is single-threaded. Everything host-visible (entry points and
// completion callbacks) runs on one goroutine. Loop is a host context for
// Go callers: Run drains dispatched callbacks one at a time on the goroutine
// that called it. The goja event loop in package hostjs is the other one.
//
// Dispatcher:
// A Dispatcher is the only way back into a host context. Workers never call
// completion callbacks themselves; they hand a closure to the Dispatcher,
// which queues it for the host.
//
// Worker Pool:
// Scheduler owns N workers (runtime.NumCPU by default) reading from an
// unbounded FIFO. Schedule returns before the work runs, so a completion is
// never observed inside the call that scheduled it.
//
// Task Lifecycle:
// 1. Schedule creates a Task in state Scheduled and enqueues it
// 2. A worker moves it to Running and calls work
// 3. work returns (value, err): state Completed, onDone is dispatched
// 4. work panics: state Failed, the panic is logged with its stack and the
//    fatal handler is called; onDone is NOT invoked
//
// CRITICAL PATTERNS:
//
// Exactly Once:
// Task state moves by compare-and-swap, so each transition happens at most
// once and each Task completes at most once.
//
// No Overlap:
// Completions for distinct tasks are unordered relative to each other, but
// the Dispatcher runs them one at a time.
//
// No Cancellation:
// Once scheduled, work runs to completion. There is no timeout.
package engine
