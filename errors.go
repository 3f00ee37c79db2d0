package motionskel

import (
	"errors"
	"fmt"
)

// ErrPrecondition is the sentinel wrapped by every PreconditionError.
var ErrPrecondition = errors.New("precondition violation")

// PreconditionError reports an input the pipeline refuses to process:
// zero or mismatched frame dimensions, a non-binary mask, an invalid window size.
// It is never retried; the current tick is aborted.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrPrecondition, e.Reason)
}

// Unwrap makes errors.Is(err, ErrPrecondition) work.
func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

func precondition(op, format string, args ...any) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
