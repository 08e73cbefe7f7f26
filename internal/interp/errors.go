package interp

import (
	"errors"
	"fmt"
)

// UnsupportedOperatorError reports a descriptor whose operator the
// interpreter does not run, either because no variant has that tag or
// because the variant is disabled.
type UnsupportedOperatorError struct {
	// Tag is the operator value as given.
	Tag string

	// Index is the descriptor's position in the batch.
	Index int
}

// Error implements the error interface.
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator: %s", e.Tag)
}

// IsUnsupportedOperator returns true if err wraps an UnsupportedOperatorError.
func IsUnsupportedOperator(err error) bool {
	var ue *UnsupportedOperatorError
	return errors.As(err, &ue)
}
