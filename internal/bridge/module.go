package bridge

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/hostbridge/internal/codec"
	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/interp"
	"github.com/roach88/hostbridge/internal/ir"
)

// ExportNames lists every operation the boundary exposes, in export order.
var ExportNames = []string{
	"greet",
	"parseText",
	"renderText",
	"scheduleTask",
	"runOperations",
	"EventEmitter",
}

// TaskResult is the value every ScheduleTask completion carries.
const TaskResult = 17

// DefaultTickInterval is the emitter's default tick period.
const DefaultTickInterval = time.Second

// Completion receives an asynchronous result on the host context: either
// (nil, value) or (err, ir.Null{}). err is always a *HostError.
type Completion func(err error, value ir.Value)

// Request is the greet argument. Body holds JSON text as raw bytes.
type Request struct {
	Body []byte `json:"body"`
}

// HelloRequest is the JSON document inside Request.Body.
type HelloRequest struct {
	Name string `json:"name"`
}

// HelloResponse is the JSON document greet returns.
type HelloResponse struct {
	Greeting string `json:"greeting"`
}

// Module is the export table. Build it once with New and share it; every
// method is meant to be called from the host context.
type Module struct {
	sched     *engine.Scheduler
	interp    *interp.Interpreter
	stdout    io.Writer
	operators []string
	tick      time.Duration
	logger    *slog.Logger
}

// Option configures a Module.
type Option func(*Module)

// WithStdout sets where runOperations writes. Default: os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(m *Module) {
		m.stdout = w
	}
}

// WithOperators restricts the operators runOperations recognises.
// Default: every registered operator.
func WithOperators(tags ...string) Option {
	return func(m *Module) {
		m.operators = append([]string{}, tags...)
	}
}

// WithTickInterval sets the emitter tick period. Default: DefaultTickInterval.
func WithTickInterval(d time.Duration) Option {
	return func(m *Module) {
		if d > 0 {
			m.tick = d
		}
	}
}

// WithLogger sets the module's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		m.logger = l
	}
}

// New builds the export table on top of sched, which delivers every
// asynchronous completion.
func New(sched *engine.Scheduler, opts ...Option) *Module {
	m := &Module{
		sched:  sched,
		stdout: os.Stdout,
		tick:   DefaultTickInterval,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	interpOpts := []interp.Option{interp.WithLogger(m.logger)}
	if m.operators != nil {
		interpOpts = append(interpOpts, interp.WithOperators(m.operators...))
	}
	m.interp = interp.New(m.stdout, interpOpts...)
	return m
}

// Operators returns the operator tags runOperations accepts.
func (m *Module) Operators() []string {
	return m.interp.Operators()
}

// Greet decodes arg as a Request, parses its body as a HelloRequest and
// returns the encoded HelloResponse bytes.
//
// Example: body `{"name":"World"}` -> `{"greeting":"Hello, World!"}`
func (m *Module) Greet(arg ir.Value) ([]byte, error) {
	return call(m, "greet", func() ([]byte, error) {
		req, err := codec.Decode[Request](arg)
		if err != nil {
			return nil, err
		}

		doc, err := ir.Parse(req.Body)
		if err != nil {
			return nil, err
		}
		hello, err := codec.Decode[HelloRequest](doc)
		if err != nil {
			return nil, err
		}

		res, err := codec.Encode(HelloResponse{Greeting: fmt.Sprintf("Hello, %s!", hello.Name)})
		if err != nil {
			return nil, err
		}
		text, err := ir.Render(res)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	})
}

// ParseText parses arg, which must be a String, as JSON text.
func (m *Module) ParseText(arg ir.Value) (ir.Value, error) {
	return call(m, "parseText", func() (ir.Value, error) {
		s, ok := arg.(ir.String)
		if !ok {
			return nil, codec.NewTypeMismatch(nil, "string", ir.KindOf(arg))
		}
		return ir.ParseString(string(s))
	})
}

// RenderText renders arg as compact JSON text.
func (m *Module) RenderText(arg ir.Value) (string, error) {
	return call(m, "renderText", func() (string, error) {
		return ir.Render(arg)
	})
}

// RunOperations runs arg, an Array of operation descriptors, writing to the
// module's stdout. Effects before a failing descriptor are not undone.
func (m *Module) RunOperations(arg ir.Value) error {
	return catch(m.logger, "runOperations", func() error {
		return m.interp.Run(arg)
	})
}

// CheckOperations reports every descriptor in arg that RunOperations would
// reject, without running any. Each error is a HostError.
func (m *Module) CheckOperations(arg ir.Value) []error {
	errs := m.interp.Check(arg)
	for i, err := range errs {
		errs[i] = NewHostError(err)
	}
	return errs
}

// ScheduleTask runs the reference task on a worker and delivers
// (nil, 17) to cb on the host context. cb never runs before ScheduleTask
// has returned.
func (m *Module) ScheduleTask(cb Completion) *engine.Task {
	task := engine.Schedule(m.sched, func() (int, error) {
		return TaskResult, nil
	}, func(v int, err error) {
		if err != nil {
			cb(NewHostError(err), ir.Null{})
			return
		}
		cb(nil, ir.Number(v))
	})
	m.logger.Debug("scheduleTask", "task_id", task.ID())
	return task
}
