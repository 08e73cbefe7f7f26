package hostjs

import (
	"errors"

	"github.com/dop251/goja"
)

// ErrClosed is returned by Exec after Close.
var ErrClosed = errors.New("runtime closed")

// ScriptError is an exception that escaped a script or one of its callbacks.
type ScriptError struct {
	// Message is the thrown value as the script would print it,
	// e.g. "Error: unsupported operator: bogus".
	Message string

	cause error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return e.Message
}

// Unwrap returns the underlying goja error.
func (e *ScriptError) Unwrap() error {
	return e.cause
}

// IsScriptError returns true if err wraps a ScriptError.
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}

func newScriptError(err error) *ScriptError {
	var ex *goja.Exception
	if errors.As(err, &ex) && ex.Value() != nil {
		return &ScriptError{Message: ex.Value().String(), cause: err}
	}
	return &ScriptError{Message: err.Error(), cause: err}
}
