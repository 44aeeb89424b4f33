package service

import "errors"

// The gateway maps collaborator failures to this taxonomy at the operation
// boundary; raw store or inference errors never reach a client.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotFound           = errors.New("not found")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
