// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Request shape errors (conflicting pagination windows, bad cursors).
	ErrInvalidArgument = errors.New("invalid argument")

	// Auth errors (bad signature, malformed payload or stale token version).
	ErrInvalidToken = errors.New("invalid token")
)

// ErrorKind names the kind of err as exposed to clients on every transport.
// An invalid token takes precedence over the Unauthorized wrapping it, so
// clients can tell a dead session from a forbidden resource. Unknown errors
// are reported as "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrorUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrorNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrorAlreadyExists):
		return "already_exists"
	default:
		return "internal"
	}
}
