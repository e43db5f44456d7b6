package appointments

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced appointment does not exist.
	ErrNotFound = errors.New("appointments: appointment not found")

	// ErrForbidden is returned when the caller lacks the role required
	// for the attempted transition. No partial effect occurs.
	ErrForbidden = errors.New("appointments: operation not permitted for caller")
)

// ValidationError describes a request the caller can correct: a time in
// the past, outside working hours, a conflicting booking, or an invalid
// transition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("appointments: invalid %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
