package errors

import (
	"errors"
	"fmt"
)

// Common error types for the mail client
var (
	// Authentication errors
	ErrMissingToken    = errors.New("no token provided")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrAccountNotFound = errors.New("user not found")

	// Account store errors
	ErrDuplicateAccount = errors.New("account already exists")

	// Login flow errors
	ErrTokenExchange      = errors.New("token exchange failed")
	ErrNoAccessToken      = errors.New("no access token received from Microsoft")
	ErrProfileUnavailable = errors.New("user profile could not be fetched")
	ErrIdentityUnknown    = errors.New("could not determine user email from Microsoft Graph response")

	// Mail gateway errors
	ErrValidation    = errors.New("validation failed")
	ErrTooManyFiles  = errors.New("too many files")
	ErrFileTooLarge  = errors.New("file too large")
	ErrNoAttachments = errors.New("no attachments found")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
