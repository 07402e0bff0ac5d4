package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/posync/internal/server/handlers"
	"github.com/iudanet/posync/internal/server/jwt"
	"github.com/iudanet/posync/internal/server/service"
	"github.com/iudanet/posync/internal/server/storage"
	"github.com/iudanet/posync/pkg/api"
)

// TokenValidator проверяет токен устройства
//
//go:generate moq -out token_validator_mock.go . TokenValidator
type TokenValidator interface {
	ValidateDeviceToken(tokenString string) (*jwt.DeviceClaims, error)
}

// DeviceRegistry реестр устройств, которым выпущены токены
//
//go:generate moq -out device_registry_mock.go . DeviceRegistry
type DeviceRegistry interface {
	GetDevice(ctx context.Context, storeID, deviceID string) (*storage.Device, error)
	TouchDevice(ctx context.Context, storeID, deviceID string, at time.Time) error
}

// AuthMiddleware создает middleware для проверки токена устройства.
// Токен должен быть валиден, а устройство зарегистрировано и не отозвано.
func AuthMiddleware(logger *slog.Logger, tokens TokenValidator, devices DeviceRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header")
				writeError(w, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				logger.Warn("Invalid Authorization header format")
				writeError(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateDeviceToken(parts[1])
			if err != nil {
				logger.Warn("Invalid device token", "error", err)
				writeError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			device, err := devices.GetDevice(ctx, claims.StoreID, claims.DeviceID)
			switch {
			case errors.Is(err, storage.ErrDeviceNotFound):
				logger.Warn("Token of unknown device", "store_id", claims.StoreID, "device_id", claims.DeviceID)
				writeError(w, "device is not registered", http.StatusUnauthorized)
				return
			case err != nil:
				logger.Error("Failed to look up device", "error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			case device.RevokedAt != nil:
				logger.Warn("Token of revoked device", "store_id", claims.StoreID, "device_id", claims.DeviceID)
				writeError(w, "device is revoked", http.StatusUnauthorized)
				return
			}

			if err := devices.TouchDevice(ctx, claims.StoreID, claims.DeviceID, time.Now().UTC()); err != nil {
				logger.Warn("Failed to record device activity", "error", err, "device_id", claims.DeviceID)
			}

			setDevice(ctx, claims.StoreID, claims.DeviceID)
			ctx = handlers.WithIdentity(ctx, service.Identity{StoreID: claims.StoreID, DeviceID: claims.DeviceID})

			logger.Debug("Device authenticated", "store_id", claims.StoreID, "device_id", claims.DeviceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError отправляет ошибку в формате api.ErrorResponse
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
