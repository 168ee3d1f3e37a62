package models

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidLogin = errors.New("invalid email or password")

	ErrProfileNotFound      = fmt.Errorf("profile %w", ErrNotFound)
	ErrCampNotFound         = fmt.Errorf("camp %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrAlreadyRegistered       = fmt.Errorf("%w: already registered for this camp", ErrConflict)
	ErrCampFull                = fmt.Errorf("%w: camp is full", ErrConflict)
	ErrEmailTaken              = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrPaymentAlreadyCompleted = fmt.Errorf("%w: payment already completed", ErrConflict)
	ErrCampNotOpen             = fmt.Errorf("%w: camp is not open for registration", ErrConflict)
	ErrInvalidTransition       = fmt.Errorf("%w: invalid camp status transition", ErrConflict)
)

// RemoteError is a transport or query failure from the data service. The
// underlying message is passed through to the caller.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Remote wraps err as a RemoteError unless it already carries a domain class.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation) {
		return err
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// Reason classifies err into the short codes returned to clients.
func Reason(err error) string {
	var re *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrInvalidToken):
		return "auth_required"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrCampFull):
		return "camp_full"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrInvalidLogin):
		return "invalid_credentials"
	case errors.As(err, &re):
		return "remote_failure"
	}
	return "internal"
}
