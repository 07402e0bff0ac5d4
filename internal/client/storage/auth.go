package storage

import (
	"context"
	"time"
)

// AuthStorage хранит токен устройства, выданный сервером.
//
// База привязывается к первому вошедшему устройству: события outbox и
// векторные часы принадлежат ему, поэтому вход другим устройством
// отклоняется с ErrDeviceMismatch и после logout.
type AuthStorage interface {
	// SaveAuth заменяет сохраненный токен
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth возвращает ErrAuthNotFound, если вход не выполнялся
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth удаляет токен; привязка к устройству остается
	DeleteAuth(ctx context.Context) error

	// BoundDevice возвращает ErrAuthNotFound для непривязанной базы
	BoundDevice(ctx context.Context) (*DeviceBinding, error)
}

// AuthData токен устройства и его claims
type AuthData struct {
	ExpiresAt  time.Time `json:"expires_at"`
	LoggedInAt time.Time `json:"logged_in_at"`
	Token      string    `json:"token"`
	StoreID    string    `json:"store_id"`
	DeviceID   string    `json:"device_id"`
}

// DeviceBinding устройство, которому принадлежит локальная база
type DeviceBinding struct {
	BoundAt  time.Time `json:"bound_at"`
	StoreID  string    `json:"store_id"`
	DeviceID string    `json:"device_id"`
}
