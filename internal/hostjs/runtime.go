package hostjs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/engine"
)

// Runtime is a goja host with the hostbridge module installed.
//
// It owns the event loop, the module registry, the worker pool and the
// export table. Scripts run one at a time through Exec.
type Runtime struct {
	loop       *eventloop.EventLoop
	dispatcher *Dispatcher
	sched      *engine.Scheduler
	module     *bridge.Module
	logger     *slog.Logger

	mu       sync.Mutex
	uncaught error
	emitters []*bridge.Emitter
	closed   bool
}

type config struct {
	stdout     io.Writer
	logger     *slog.Logger
	workers    int
	ids        engine.IDGenerator
	moduleOpts []bridge.Option
}

// Option configures a Runtime.
type Option func(*config)

// WithStdout sets where console output and runOperations go. Default: os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *config) {
		c.stdout = w
	}
}

// WithLogger sets the logger shared by the runtime, scheduler and module.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithWorkers sets the worker pool size. Default: runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithIDGenerator sets the task ID source.
func WithIDGenerator(g engine.IDGenerator) Option {
	return func(c *config) {
		c.ids = g
	}
}

// WithModuleOptions passes extra options to bridge.New.
func WithModuleOptions(opts ...bridge.Option) Option {
	return func(c *config) {
		c.moduleOpts = append(c.moduleOpts, opts...)
	}
}

// New creates a Runtime and starts its event loop.
func New(opts ...Option) *Runtime {
	cfg := config{stdout: os.Stdout, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := new(require.Registry)
	loop := eventloop.NewEventLoop(eventloop.EnableConsole(false), eventloop.WithRegistry(reg))

	r := &Runtime{
		loop:       loop,
		dispatcher: NewDispatcher(loop),
		logger:     cfg.logger,
	}

	schedOpts := []engine.SchedulerOption{engine.WithLogger(cfg.logger)}
	if cfg.workers > 0 {
		schedOpts = append(schedOpts, engine.WithWorkers(cfg.workers))
	}
	if cfg.ids != nil {
		schedOpts = append(schedOpts, engine.WithIDGenerator(cfg.ids))
	}
	r.sched = engine.NewScheduler(r.dispatcher, schedOpts...)

	moduleOpts := append([]bridge.Option{
		bridge.WithStdout(cfg.stdout),
		bridge.WithLogger(cfg.logger),
	}, cfg.moduleOpts...)
	r.module = bridge.New(r.sched, moduleOpts...)

	reg.RegisterNativeModule("console", console.RequireWithPrinter(&printer{w: cfg.stdout}))
	reg.RegisterNativeModule(ModuleName, Require(r.module,
		WithUncaughtHandler(r.recordUncaught),
		WithEmitterHook(r.trackEmitter),
	))

	loop.Start()
	loop.RunOnLoop(func(vm *goja.Runtime) {
		console.Enable(vm)
	})
	return r
}

// Module returns the installed export table.
func (r *Runtime) Module() *bridge.Module {
	return r.module
}

// Delivered returns the number of completions run on the loop so far.
func (r *Runtime) Delivered() int64 {
	return r.dispatcher.Delivered()
}

// Exec runs src on the loop and waits until the script and every task it
// scheduled, directly or from a callback, have finished.
//
// The script's own exception wins; otherwise the first exception thrown by
// a completion callback is returned. Both come back as *ScriptError.
// Timers started with setTimeout are not waited for.
func (r *Runtime) Exec(ctx context.Context, name, src string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.uncaught = nil
	r.mu.Unlock()

	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	done := make(chan error, 1)
	ok := r.loop.RunOnLoop(func(vm *goja.Runtime) {
		_, err := vm.RunProgram(prg)
		done <- err
	})
	if !ok {
		return ErrClosed
	}

	var scriptErr error
	select {
	case scriptErr = <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := r.sched.Wait(ctx); err != nil {
		return err
	}
	r.logger.Debug("script finished", "script", name, "failed", scriptErr != nil)

	if scriptErr != nil {
		return newScriptError(scriptErr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uncaught != nil {
		return newScriptError(r.uncaught)
	}
	return nil
}

// Close shuts down emitters, refuses further completions and stops the
// workers and the loop. Safe to call more than once.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	emitters := r.emitters
	r.emitters = nil
	r.mu.Unlock()

	for _, em := range emitters {
		em.Shutdown()
	}
	r.dispatcher.Close()
	r.sched.Close()
	r.loop.Stop()
}

func (r *Runtime) recordUncaught(err error) {
	r.logger.Warn("uncaught exception in callback", "error", err)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uncaught == nil {
		r.uncaught = err
	}
}

func (r *Runtime) trackEmitter(em *bridge.Emitter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitters = append(r.emitters, em)
}

// printer is the console printer. All levels go to one writer so script
// output keeps its order.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) Log(s string)   { p.write(s) }
func (p *printer) Warn(s string)  { p.write(s) }
func (p *printer) Error(s string) { p.write(s) }

func (p *printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, s+"\n")
}
