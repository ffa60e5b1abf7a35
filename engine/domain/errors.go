package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrEmptyID      = errors.New("empty id")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrEmptyText    = errors.New("empty text")
	ErrNegativeSeat = errors.New("negative seat count")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// FatalError marks a failure the current run cannot recover from: the
// embedding service is down or answering garbage, or the vector store cannot
// be read. Library code never exits the process; it wraps the cause in a
// FatalError and lets the top-level caller decide. Generation failures are
// never fatal; they surface as a diagnostic answer instead.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a FatalError. Returns nil for a nil err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Fatalf formats a FatalError. The format supports %w.
func Fatalf(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether any error in the chain is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
