// errors.go defines the sentinel errors repositories surface to the service
// layer, plus driver error classification. Pre-insert existence checks give
// friendly errors on the common path, but the database unique index is the
// authoritative guard: check-then-insert has a race, so unique-violation
// errors from the driver are classified here and must be handled by callers.
package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate")
	// ErrNotPending is returned by Transition when the resource exists but
	// has already left the PENDING state.
	ErrNotPending = errors.New("resource not pending")
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation,
// optionally on a specific named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
