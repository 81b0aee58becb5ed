package booking

import (
	"errors"
	"fmt"
)

// Validation rules.  They are wrapped in a *ValidationError naming the
// offending field and are meant to be shown to the customer.
var (
	ErrMissingDate     = errors.New("date is required")
	ErrPastCheckin     = errors.New("check-in date is in the past")
	ErrInvalidRange    = errors.New("check-out must be after check-in")
	ErrConflict        = errors.New("room already booked for the selected dates")
	ErrRoomUnavailable = errors.New("room is not available for booking")
)

// Request-level failures that are not tied to a form field.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotOwner          = errors.New("not allowed to modify this booking")
	ErrAlreadyCancelled  = errors.New("booking has already been cancelled")
	ErrNoActiveSelection = errors.New("selection expired or missing, please select your dates again")
	ErrPersistence       = errors.New("persistence failure")
)

// ValidationError reports a rule violated by the submitted dates.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError returns the *ValidationError in err's chain, or nil.
func IsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
