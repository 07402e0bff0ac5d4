package storage

import (
	"context"
	"time"
)

// Device устройство, которому выпущен токен
type Device struct {
	RegisteredAt time.Time
	LastSeenAt   *time.Time
	RevokedAt    *time.Time
	StoreID      string
	DeviceID     string
}

// DeviceStorage defines the registry of devices allowed to sync
type DeviceStorage interface {
	// RegisterDevice creates the device or clears its revocation
	RegisterDevice(ctx context.Context, storeID, deviceID string, at time.Time) error

	// GetDevice returns ErrDeviceNotFound for unknown devices
	GetDevice(ctx context.Context, storeID, deviceID string) (*Device, error)

	// RevokeDevice returns ErrDeviceNotFound for unknown devices
	RevokeDevice(ctx context.Context, storeID, deviceID string, at time.Time) error

	// TouchDevice records the last time the device talked to the server
	TouchDevice(ctx context.Context, storeID, deviceID string, at time.Time) error
}
