package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
)

// HostError is the only error shape that crosses the boundary. The host
// sees Message; the wrapped cause stays on the Go side for logs and tests.
type HostError struct {
	Message string
	cause   error
}

// Error implements the error interface.
func (e *HostError) Error() string {
	return e.Message
}

// Unwrap returns the Go-side cause, if any.
func (e *HostError) Unwrap() error {
	return e.cause
}

// NewHostError converts err into a HostError. A HostError is returned as is.
func NewHostError(err error) *HostError {
	if err == nil {
		return nil
	}
	var he *HostError
	if errors.As(err, &he) {
		return he
	}
	return &HostError{Message: Message(err), cause: err}
}

// Message maps a failure to the single-line text shown to the host.
//
// Every error type in this module already renders the host-facing text
// ("parse error at offset 1: ...", "missing field \"name\"",
// "unsupported operator: bogus"), so this only flattens it to one line.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := singleLine(err.Error())
	if msg == "" {
		return "unknown error"
	}
	return msg
}

// singleLine collapses line breaks and runs of whitespace into single spaces.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Catch runs fn and converts whatever goes wrong into a *HostError: a
// returned error is converted, a panic is recovered and reported as an
// internal failure of op.
func Catch(op string, fn func() error) error {
	return catch(slog.Default(), op, fn)
}

func catch(logger *slog.Logger, op string, fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Error("internal failure",
			"op", op,
			"panic", r,
			"stack", string(debug.Stack()),
		)
		cause := fmt.Errorf("internal failure in %s: %v", op, r)
		err = &HostError{Message: singleLine(cause.Error()), cause: cause}
	}()

	if e := fn(); e != nil {
		return NewHostError(e)
	}
	return nil
}

// call is catch for entry points that return a value. On failure the zero T
// is returned.
func call[T any](m *Module, op string, fn func() (T, error)) (T, error) {
	var out T
	err := catch(m.logger, op, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		m.logger.Debug("call failed", "op", op, "error", err)
		return zero, err
	}
	return out, nil
}
