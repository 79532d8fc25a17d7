package auth

import "errors"

var (
	// ErrInvalidCode is returned when OTP verification fails for any reason.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrInvalidEmail indicates the sign-in request carried an unusable email.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized represents a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
)
