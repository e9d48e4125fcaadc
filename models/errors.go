package models

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")

	// ErrUnavailable marks an optional backend that is not configured or
	// not reachable.
	ErrUnavailable = errors.New("unavailable")
)

// ValidationError reports a schema violation on a single field. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func fieldError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
