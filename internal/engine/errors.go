package engine

import (
	"errors"
	"fmt"
)

// ErrSchedulerClosed is delivered to onDone when Schedule is called after
// Close.
var ErrSchedulerClosed = errors.New("scheduler closed")

// TaskPanicError describes work that terminated abnormally.
//
// It is never routed to onDone: the worker state is suspect after a panic.
// It is logged and handed to the fatal handler instead.
type TaskPanicError struct {
	// TaskID identifies the failed task.
	TaskID string

	// Value is the value passed to panic.
	Value any

	// Stack is the worker goroutine's stack at the point of recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.TaskID, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *TaskPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsTaskPanic returns true if err wraps a TaskPanicError.
// Uses errors.As to handle wrapped errors.
func IsTaskPanic(err error) bool {
	var pe *TaskPanicError
	return errors.As(err, &pe)
}
