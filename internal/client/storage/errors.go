package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no device credentials were stored
	ErrAuthNotFound = errors.New("device credentials not found")

	// ErrDeviceMismatch indicates that the database is bound to another device
	ErrDeviceMismatch = errors.New("database belongs to another device")

	// ErrDuplicateEvent indicates that an event with the same event_id already exists
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrCorruptEvent indicates that a stored event record cannot be decoded
	ErrCorruptEvent = errors.New("corrupt event record")

	// ErrEventNotFound indicates that the event is not in the outbox
	ErrEventNotFound = errors.New("event not found")

	// ErrConflictNotFound indicates that the conflict record does not exist
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrEntityNotFound indicates that the read model row does not exist
	ErrEntityNotFound = errors.New("entity not found")

	// ErrCacheMiss indicates that the durable cache tier has no entry for the key
	ErrCacheMiss = errors.New("cache miss")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
