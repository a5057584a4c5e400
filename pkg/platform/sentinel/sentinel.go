package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain outcomes:
// - ErrNotFound: row does not exist
// - ErrConflict: a uniqueness constraint rejected the write
// - ErrAlreadyUsed: a one-shot resource (nvote token) was already consumed
// - ErrInvalidState: row is in the wrong state for the requested transition
// - ErrUnavailable: dependency temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
