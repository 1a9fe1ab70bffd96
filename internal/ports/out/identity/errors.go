package identity

import "errors"

var (
	// ErrInvalidToken indicates the provider rejected the presented tokens
	// (expired, malformed, or already consumed).
	ErrInvalidToken = errors.New("identity: invalid or expired token")

	// ErrNoSession indicates an operation that requires an established
	// session was called without one.
	ErrNoSession = errors.New("identity: no active session")
)
