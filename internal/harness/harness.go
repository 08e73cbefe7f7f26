package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/hostbridge/internal/bridge"
	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/hostjs"
	"github.com/roach88/hostbridge/internal/testutil"
)

// DefaultTimeout bounds a single scenario run.
const DefaultTimeout = 10 * time.Second

// TickInterval is the emitter tick period inside scenarios. It is short so
// emitter scenarios finish quickly.
const TickInterval = 10 * time.Millisecond

// Harness runs scenarios in isolation: every run gets a fresh host, a fresh
// worker pool and sequential task IDs.
type Harness struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithTimeout bounds each run. Default: DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(h *Harness) {
		h.timeout = d
	}
}

// WithLogger sets the logger handed to the host. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with default settings.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes scenario and checks its expectations.
//
// A failure of the code under test is not an error here: it is recorded in
// Result.Error and compared with the expectation. Run only returns an error
// when the scenario itself cannot be executed.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var (
		result *Result
		err    error
	)
	if scenario.HasScript() {
		result, err = h.runScript(ctx, scenario)
	} else {
		result, err = h.runOperations(scenario)
	}
	if err != nil {
		return nil, err
	}

	h.check(scenario.Expect, result)
	h.logger.Debug("scenario finished", "scenario", scenario.Name, "pass", result.Pass)
	return result, nil
}

func (h *Harness) runScript(ctx context.Context, scenario *Scenario) (*Result, error) {
	out := &testutil.LockedBuffer{}
	rt := hostjs.New(
		hostjs.WithStdout(out),
		hostjs.WithLogger(h.logger),
		hostjs.WithIDGenerator(testutil.NewSequenceGenerator("task")),
		hostjs.WithModuleOptions(bridge.WithTickInterval(TickInterval)),
	)
	defer rt.Close()

	result := NewResult()
	err := rt.Exec(ctx, scenario.Name+".js", scenario.Script)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, ctx.Err())
	}
	if err != nil {
		result.Error = bridge.Message(err)
	}
	result.Stdout = out.String()
	result.Callbacks = rt.Delivered()
	return result, nil
}

// runOperations feeds the batch straight to the export table. Nothing is
// scheduled, so the loop only backs the scheduler.
func (h *Harness) runOperations(scenario *Scenario) (*Result, error) {
	ops, err := ValueFromYAML(&scenario.Operations)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: operations: %w", scenario.Name, err)
	}

	loop := engine.NewLoop(engine.WithLoopLogger(h.logger))
	sched := engine.NewScheduler(loop, engine.WithWorkers(1), engine.WithLogger(h.logger))
	defer func() {
		sched.Close()
		loop.Stop()
	}()

	out := &testutil.LockedBuffer{}
	m := bridge.New(sched, bridge.WithStdout(out), bridge.WithLogger(h.logger))

	result := NewResult()
	if err := m.RunOperations(ops); err != nil {
		result.Error = bridge.Message(err)
	}
	result.Stdout = out.String()
	result.Callbacks = loop.Executed()
	return result, nil
}

func (h *Harness) check(expect Expect, result *Result) {
	if expect.Stdout != nil && *expect.Stdout != result.Stdout {
		result.AddError(fmt.Sprintf("stdout: expected %s, got %s", quote(*expect.Stdout), quote(result.Stdout)))
	}

	switch {
	case expect.Error == nil && result.Error != "":
		result.AddError(fmt.Sprintf("unexpected error: %s", result.Error))
	case expect.Error != nil && result.Error == "":
		result.AddError(fmt.Sprintf("expected error %s, run succeeded", quote(*expect.Error)))
	case expect.Error != nil && *expect.Error != result.Error:
		result.AddError(fmt.Sprintf("error: expected %s, got %s", quote(*expect.Error), quote(result.Error)))
	}

	if expect.Callbacks != nil && *expect.Callbacks != result.Callbacks {
		result.AddError(fmt.Sprintf("callbacks: expected %d, got %d", *expect.Callbacks, result.Callbacks))
	}
}
