package domain

import "errors"

// Sentinel errors surfaced by the core services. The transport layer maps
// them to envelope messages with errors.Is, so wrap rather than replace them.
var (
	ErrDuplicateAccount   = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidAction      = errors.New("invalid action")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrLockTimeout        = errors.New("record is busy")
)
