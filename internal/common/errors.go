// Package common defines shared constants and sentinel errors used across
// client and server layers of authkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")

	// Error kinds. Each maps to one response class of the HTTP surface.
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrorInternal         = errors.New("internal error")

	// Token errors (invalid or malformed token, expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error is a client-facing failure: Message is safe to show to the caller,
// Kind is one of the error kinds above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Flow errors returned by the user service.
var (
	ErrMissingFields      = NewError(ErrValidation, "All fields are required")
	ErrPasswordMismatch   = NewError(ErrValidation, "Passwords do not match")
	ErrPasswordTooShort   = NewError(ErrValidation, "Password must be at least 6 characters")
	ErrMissingCredentials = NewError(ErrValidation, "Email and password are required")
	ErrInvalidBody        = NewError(ErrValidation, "Invalid request body")
	ErrEmailInUse         = NewError(ErrConflict, "Email already in use")
	ErrBadCredentials     = NewError(ErrInvalidCredentials, "Invalid email or password")
)

// MessageOf returns the client-facing message carried by err, or fallback
// when err is not an *Error.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
