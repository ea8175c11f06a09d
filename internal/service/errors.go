package service

import (
	"errors"
	"fmt"

	"ignist/internal/auth"
)

// Business-rule failures. Infrastructure failures are passed through as
// store errors and are never one of these.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidOrExpiredSecret = errors.New("invalid or expired reset secret")
	ErrConflict               = errors.New("conflict")
	ErrWeakPassword           = auth.ErrWeakPassword
	ErrInvalidOldPassword     = errors.New("old password is incorrect")
	ErrPasswordMismatch       = errors.New("new password and confirmation do not match")
	ErrAttachmentsDisabled    = errors.New("attachment storage is not configured")

	ErrDuplicateUser     = fmt.Errorf("%w: a user with this email already exists", ErrConflict)
	ErrEmailInUse        = fmt.Errorf("%w: email is already in use", ErrConflict)
	ErrConcurrentUpdate  = fmt.Errorf("%w: the record was modified concurrently, retry", ErrConflict)
	ErrPublicationExists = fmt.Errorf("%w: publication already exists", ErrConflict)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
