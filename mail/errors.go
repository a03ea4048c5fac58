package mail

import (
	apperrors "github.com/jrsteele09/go-graph-mail/internal/errors"
)

// ValidationError is a request the gateway refuses before calling the provider.
// Err holds the underlying cause, if any.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperrors.ErrValidation}
	}
	return []error{apperrors.ErrValidation, e.Err}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func invalidCause(field, reason string, err error) error {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}
