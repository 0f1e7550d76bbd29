package session

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("invalid session durations")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStaleEvent       = errors.New("stale event")
	ErrLocked           = errors.New("session is locked")
	ErrNotActive        = errors.New("session is not active")
	ErrAlreadyStarted   = errors.New("session already started")
)

// MissingFieldsMessage is shown when a duration field is left empty
const MissingFieldsMessage = "Please fill out all time fields before starting the timer."

// ValidationError reports which duration was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// PermissionDeniedError reports a capability the user refused
type PermissionDeniedError struct {
	Capability string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("Permission to access %s was denied", e.Capability)
}

func (e *PermissionDeniedError) Unwrap() error {
	return ErrPermissionDenied
}

// StaleEventError is returned for ticks and samples that belong to an
// earlier session generation.
type StaleEventError struct {
	Got  uint64
	Want uint64
}

func (e *StaleEventError) Error() string {
	return fmt.Sprintf("event from generation %d, current is %d", e.Got, e.Want)
}

func (e *StaleEventError) Unwrap() error {
	return ErrStaleEvent
}
