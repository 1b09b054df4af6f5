package domain

import "errors"

// Sentinel errors shared across layers. Services return them unwrapped so
// callers can match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotJoinable  = errors.New("event is not open for registration")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotRegistered     = errors.New("not registered for this event")
	ErrAlreadyCancelled  = errors.New("participation already cancelled")
)
