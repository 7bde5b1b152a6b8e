// Package common defines shared constants and sentinel errors used across
// the server, the client and the CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrInfrastructure is returned when storage or the database cannot serve
	// a request. The cause is logged, not surfaced.
	ErrInfrastructure = errors.New("infrastructure error")

	// ErrConfiguration marks a missing or inconsistent setting; fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	ErrRateLimited = errors.New("rate limited")

	// Token lifecycle errors. Each one also matches its taxonomy kind,
	// so errors.Is(ErrTokenExpired, ErrorUnauthorized) is true.
	ErrTokenNotFound      = newKindError("token not found", ErrorNotFound)
	ErrTokenExpired       = newKindError("token expired", ErrorUnauthorized)
	ErrTokenMalformed     = newKindError("token malformed", ErrorUnauthorized)
	ErrInvalidCredentials = newKindError("invalid credentials", ErrorUnauthorized)
	ErrUserNotFound       = newKindError("user not found", ErrorNotFound)

	// Asset errors.
	ErrAssetNotFound = newKindError("asset not found", ErrorNotFound)
)

type kindError struct {
	msg  string
	kind error
}

func newKindError(msg string, kind error) error {
	return &kindError{msg: msg, kind: kind}
}

func (e *kindError) Error() string { return e.msg }

// Is reports whether target is the taxonomy kind of e.
func (e *kindError) Is(target error) bool { return target == e.kind }
