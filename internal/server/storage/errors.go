package storage

import "errors"

// Common storage errors
var (
	// ErrEventNotFound indicates that event was not found in the log
	ErrEventNotFound = errors.New("event not found")

	// ErrDuplicateEvent indicates that an event with this id was already accepted
	ErrDuplicateEvent = errors.New("event already accepted")

	// ErrConflictNotFound indicates that conflict was not found
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrDeviceNotFound indicates that device was never registered
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceRevoked indicates that device token was revoked
	ErrDeviceRevoked = errors.New("device revoked")
)
