package database

import (
	"errors"

	"github.com/lib/pq"

	"github.com/plateful/plateful/internal/domain"
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// MapError converts driver-level constraint violations into the domain
// error taxonomy so handlers can answer with a specific reason. Other
// errors pass through untouched.
func MapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case foreignKeyViolation, uniqueViolation:
			return &domain.ConstraintError{Constraint: pqErr.Constraint, Err: err}
		}
	}
	return err
}
