package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/posync/internal/server/storage"
)

// RegisterDevice creates the device or clears its revocation
func (s *Storage) RegisterDevice(ctx context.Context, storeID, deviceID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (store_id, device_id, registered_at) VALUES (?, ?, ?)
		ON CONFLICT (store_id, device_id) DO UPDATE SET revoked_at = NULL
	`, storeID, deviceID, at.UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// GetDevice retrieves a registered device
func (s *Storage) GetDevice(ctx context.Context, storeID, deviceID string) (*storage.Device, error) {
	device := &storage.Device{}
	var registeredAt int64
	var lastSeen, revoked sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT store_id, device_id, registered_at, last_seen_at, revoked_at
		FROM devices
		WHERE store_id = ? AND device_id = ?
	`, storeID, deviceID).Scan(
		&device.StoreID,
		&device.DeviceID,
		&registeredAt,
		&lastSeen,
		&revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	device.RegisteredAt = time.UnixMicro(registeredAt).UTC()
	device.LastSeenAt = timePtr(lastSeen)
	device.RevokedAt = timePtr(revoked)
	return device, nil
}

// RevokeDevice forbids further requests of the device
func (s *Storage) RevokeDevice(ctx context.Context, storeID, deviceID string, at time.Time) error {
	return s.updateDevice(ctx, `UPDATE devices SET revoked_at = ? WHERE store_id = ? AND device_id = ?`,
		at.UnixMicro(), storeID, deviceID)
}

// TouchDevice records the last request time of the device
func (s *Storage) TouchDevice(ctx context.Context, storeID, deviceID string, at time.Time) error {
	return s.updateDevice(ctx, `UPDATE devices SET last_seen_at = ? WHERE store_id = ? AND device_id = ?`,
		at.UnixMicro(), storeID, deviceID)
}

func (s *Storage) updateDevice(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrDeviceNotFound
	}
	return nil
}
