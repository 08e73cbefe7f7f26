package interp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hostbridge/internal/codec"
	"github.com/roach88/hostbridge/internal/ir"
)

// Interpreter executes operation batches against an output stream.
//
// Not safe for concurrent use; it is meant to be driven from the host
// context, which is single-threaded.
type Interpreter struct {
	w       io.Writer
	enabled map[string]bool
	logger  *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOperators restricts the recognised operators to tags. Tags with no
// registered variant are ignored.
//
// Default: every registered variant.
func WithOperators(tags ...string) Option {
	return func(in *Interpreter) {
		known := make(map[string]bool)
		for _, t := range Operations.Tags() {
			known[t] = true
		}

		in.enabled = make(map[string]bool, len(tags))
		for _, t := range tags {
			if !known[t] {
				in.logger.Warn("ignoring unknown operator", "operator", t)
				continue
			}
			in.enabled[t] = true
		}
	}
}

// WithLogger sets the interpreter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// New creates an Interpreter writing Print output to w.
func New(w io.Writer, opts ...Option) *Interpreter {
	in := &Interpreter{
		w:       w,
		enabled: make(map[string]bool),
		logger:  slog.Default(),
	}
	for _, t := range Operations.Tags() {
		in.enabled[t] = true
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Operators returns the enabled operator tags in registration order.
func (in *Interpreter) Operators() []string {
	var out []string
	for _, t := range Operations.Tags() {
		if in.enabled[t] {
			out = append(out, t)
		}
	}
	return out
}

// Run executes a batch. ops must be an Array of descriptors.
func (in *Interpreter) Run(ops ir.Value) error {
	arr, ok := ops.(ir.Array)
	if !ok {
		return codec.NewTypeMismatch(nil, "array", ir.KindOf(ops))
	}
	return in.RunDescriptors(arr)
}

// RunDescriptors executes descriptors in index order and stops at the first
// failure. Effects of descriptors before the failing one remain.
func (in *Interpreter) RunDescriptors(ops []ir.Value) error {
	for i, desc := range ops {
		op, err := in.decode(i, desc)
		if err != nil {
			in.logger.Debug("batch stopped", "index", i, "error", err)
			return err
		}
		if err := in.execute(op); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	in.logger.Debug("batch complete", "operations", len(ops))
	return nil
}

func (in *Interpreter) decode(i int, desc ir.Value) (Operation, error) {
	op, err := Operations.Decode(desc)
	if err != nil {
		var se *codec.SchemaError
		if errors.As(err, &se) && se.Kind == codec.KindUnknownVariant {
			return nil, &UnsupportedOperatorError{Tag: se.Tag, Index: i}
		}
		return nil, fmt.Errorf("operation %d: %w", i, err)
	}
	if tag := op.operator(); !in.enabled[tag] {
		return nil, &UnsupportedOperatorError{Tag: tag, Index: i}
	}
	return op, nil
}

func (in *Interpreter) execute(op Operation) error {
	switch o := op.(type) {
	case Print:
		_, err := io.WriteString(in.w, o.Value+"\n")
		return err
	default:
		return &UnsupportedOperatorError{Tag: op.operator()}
	}
}

// Check decodes every descriptor without executing any. It returns one
// error per descriptor that Run would stop at, in index order.
func (in *Interpreter) Check(ops ir.Value) []error {
	arr, ok := ops.(ir.Array)
	if !ok {
		return []error{codec.NewTypeMismatch(nil, "array", ir.KindOf(ops))}
	}
	var errs []error
	for i, desc := range arr {
		if _, err := in.decode(i, desc); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
