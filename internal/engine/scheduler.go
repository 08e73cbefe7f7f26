package engine

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// TaskState is the lifecycle position of a Task.
type TaskState int32

const (
	// TaskScheduled: enqueued, not yet picked up by a worker.
	TaskScheduled TaskState = iota + 1
	// TaskRunning: work is executing on a worker.
	TaskRunning
	// TaskCompleted: work returned; its result has been handed to the dispatcher.
	TaskCompleted
	// TaskFailed: work panicked, or the task could not be run at all.
	TaskFailed
)

// String returns the state name for logs.
func (s TaskState) String() string {
	switch s {
	case TaskScheduled:
		return "scheduled"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is one unit of deferred work. A Task is never reused.
type Task struct {
	id    string
	state atomic.Int32
}

// ID returns the task ID.
func (t *Task) ID() string {
	return t.id
}

// State returns the current state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// transition moves the task from one state to the next.
// Returns false if the task was not in state from.
func (t *Task) transition(from, to TaskState) bool {
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// job is a queued task plus the closure that runs and delivers it.
type job struct {
	task *Task
	run  func()
}

// Scheduler is the worker pool.
//
// Thread-safety: Schedule, Wait, InFlight and Close are safe from any
// goroutine. Completions only ever run through the Dispatcher.
type Scheduler struct {
	dispatcher Dispatcher
	jobs       *queue[job]
	workers    int
	ids        IDGenerator
	logger     *slog.Logger
	onFatal    func(*TaskPanicError)

	mu       sync.Mutex
	inFlight int
	idle     []chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers sets the pool size. Values below 1 are ignored.
//
// Default: runtime.NumCPU()
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIDGenerator sets the task ID source.
//
// Default: UUIDv7Generator. Use NewFixedGenerator in tests.
func WithIDGenerator(g IDGenerator) SchedulerOption {
	return func(s *Scheduler) {
		s.ids = g
	}
}

// WithFatalHandler registers fn to observe work that panicked. fn runs on
// the worker goroutine after the panic has been logged.
func WithFatalHandler(fn func(*TaskPanicError)) SchedulerOption {
	return func(s *Scheduler) {
		s.onFatal = fn
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a Scheduler that delivers completions through d and
// starts its workers.
func NewScheduler(d Dispatcher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		dispatcher: d,
		jobs:       newQueue[job](),
		workers:    runtime.NumCPU(),
		ids:        UUIDv7Generator{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go s.worker()
	}
	return s
}

// Workers returns the pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Schedule runs work on a worker and later invokes onDone with its result
// on the host context, exactly once.
//
// Schedule returns before work starts. onDone is never invoked inside
// Schedule, even when the scheduler is closed: in that case it receives
// ErrSchedulerClosed through the dispatcher.
//
// work must not touch host-owned values; copy what it needs before calling.
func Schedule[T any](s *Scheduler, work func() (T, error), onDone func(T, error)) *Task {
	return schedule(s, work, onDone, s.jobs.Enqueue)
}

// ScheduleBlocking is Schedule for work that spends its time waiting on
// another goroutine, such as a channel receive with no deadline. work runs
// on a goroutine of its own so a long wait never holds a pool worker. The
// task is in flight until onDone has run, as with Schedule.
func ScheduleBlocking[T any](s *Scheduler, work func() (T, error), onDone func(T, error)) *Task {
	return schedule(s, work, onDone, func(j job) bool {
		if s.jobs.Closed() {
			return false
		}
		go s.execute(j)
		return true
	})
}

func schedule[T any](s *Scheduler, work func() (T, error), onDone func(T, error), start func(job) bool) *Task {
	task := &Task{id: s.ids.Generate()}
	task.state.Store(int32(TaskScheduled))
	s.begin()

	run := func() {
		if !task.transition(TaskScheduled, TaskRunning) {
			s.end()
			return
		}

		value, err := work()
		task.transition(TaskRunning, TaskCompleted)
		s.deliver(task, func() { onDone(value, err) })
	}

	if !start(job{task: task, run: run}) {
		task.transition(TaskScheduled, TaskFailed)
		s.logger.Warn("schedule after close", "task_id", task.id)
		var zero T
		s.deliver(task, func() { onDone(zero, ErrSchedulerClosed) })
		return task
	}

	s.logger.Debug("task scheduled", "task_id", task.id)
	return task
}

// deliver hands fn to the dispatcher. The task stops counting as in flight
// once fn has run, or right away if the dispatcher refuses it.
func (s *Scheduler) deliver(task *Task, fn func()) {
	ok := s.dispatcher.Dispatch(func() {
		defer s.end()
		fn()
	})
	if !ok {
		s.logger.Warn("completion dropped: dispatcher closed", "task_id", task.id)
		s.end()
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		if j, ok := s.jobs.TryDequeue(); ok {
			s.execute(j)
			continue
		}
		if s.jobs.Drained() {
			return
		}
		<-s.jobs.Wait()
	}
}

// execute runs one job, turning a panic in work into a Failed task.
func (s *Scheduler) execute(j job) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		j.task.transition(TaskRunning, TaskFailed)
		pe := &TaskPanicError{TaskID: j.task.id, Value: r, Stack: debug.Stack()}
		s.logger.Error("task panicked",
			"task_id", pe.TaskID,
			"panic", r,
			"stack", string(pe.Stack),
		)
		if s.onFatal != nil {
			s.onFatal(pe)
		}
		s.end()
	}()

	j.run()
}

func (s *Scheduler) begin() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *Scheduler) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
	if s.inFlight == 0 {
		for _, ch := range s.idle {
			close(ch)
		}
		s.idle = nil
	}
}

// InFlight returns the number of tasks whose completion has not yet run.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Wait blocks until no task is in flight or ctx is done.
//
// Completions run on the host context, so Wait must not be called from the
// goroutine that drives the dispatcher: it would wait on itself.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight == 0 {
		s.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	s.idle = append(s.idle, ch)
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

// Close stops accepting work and waits for the workers to finish the jobs
// already queued. It does not wait for their completions to be delivered.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.jobs.Close()
		s.wg.Wait()
		s.logger.Debug("scheduler closed")
	})
}
