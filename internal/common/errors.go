// Package common defines shared constants and sentinel errors used across
// client and server layers of authkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Login errors. Transports report both as the same opaque failure.
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Request authentication errors.
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrRevoked      = errors.New("token revoked")
	ErrUserNotFound = errors.New("user not found")

	// Token lifecycle errors.
	ErrTokenIssuance   = errors.New("token issuance failed")
	ErrNoActiveSession = errors.New("no active session")
)

// IsUnauthorized reports whether err is one of the failures that transports
// collapse into a generic "unauthorized" answer.
func IsUnauthorized(err error) bool {
	switch {
	case errors.Is(err, ErrorUnauthorized),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrRevoked),
		errors.Is(err, ErrUserNotFound):
		return true
	}
	return false
}

// IsLoginFailure reports whether err means the submitted credentials were
// rejected, without telling which part was wrong.
func IsLoginFailure(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrInvalidCredentials)
}
