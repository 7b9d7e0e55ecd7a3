package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrSubscriptionClosed  = errors.New("subscription closed")
	ErrSessionNotPersisted = errors.New("session not persisted")
)

// ErrConflict reports a uniqueness violation in a repository.
var ErrConflict = errors.New("conflict")
