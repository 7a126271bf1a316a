package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced row does not exist, including
// the zero-rows-affected case after an update or delete.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input. It is always raised
// before any database round trip, so the caller is at fault and a retry
// with the same input will not help.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConstraintError wraps a foreign-key or uniqueness violation surfaced by
// the store, keeping the constraint name so callers get a specific reason.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }
