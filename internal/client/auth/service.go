package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/server/jwt"
	"github.com/iudanet/posync/internal/validation"
)

var (
	// ErrNotLoggedIn возвращается, если токен устройства не сохранен
	ErrNotLoggedIn = errors.New("device is not logged in")
	// ErrTokenExpired возвращается для просроченного токена
	ErrTokenExpired = errors.New("device token expired")
)

// TokenSource отдает токен доступа для вызовов сервера
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken TokenSource с фиксированным токеном
type StaticToken string

func (t StaticToken) AccessToken(ctx context.Context) (string, error) {
	return string(t), nil
}

// Service управляет токеном устройства, выданным сервером
type Service struct {
	storage storage.AuthStorage
	logger  *slog.Logger
	now     func() time.Time
}

var _ TokenSource = (*Service)(nil)

// NewService создает новый сервис авторизации устройства
func NewService(authStorage storage.AuthStorage, logger *slog.Logger) *Service {
	return &Service{
		storage: authStorage,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login сохраняет токен устройства. Магазин и устройство берутся из claims;
// подпись проверяет сервер при каждом запросе.
func (s *Service) Login(ctx context.Context, token string) (*storage.AuthData, error) {
	claims, err := jwt.ParseUnverified(token)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateID(claims.StoreID); err != nil {
		return nil, fmt.Errorf("invalid store id in token: %w", err)
	}
	if err := validation.ValidateID(claims.DeviceID); err != nil {
		return nil, fmt.Errorf("invalid device id in token: %w", err)
	}

	auth := &storage.AuthData{
		Token:      token,
		StoreID:    claims.StoreID,
		DeviceID:   claims.DeviceID,
		LoggedInAt: s.now().UTC(),
	}
	if claims.ExpiresAt != nil {
		auth.ExpiresAt = claims.ExpiresAt.Time.UTC()
		if !s.now().Before(auth.ExpiresAt) {
			return nil, ErrTokenExpired
		}
	}

	if err := s.storage.SaveAuth(ctx, auth); err != nil {
		if errors.Is(err, storage.ErrDeviceMismatch) {
			return nil, fmt.Errorf("token for %s/%s rejected: %w", auth.StoreID, auth.DeviceID, err)
		}
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.logger.Info("Device logged in", "store_id", auth.StoreID, "device_id", auth.DeviceID)
	return auth, nil
}

// Session возвращает сохраненные данные устройства
func (s *Service) Session(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.storage.GetAuth(ctx)
	if errors.Is(err, storage.ErrAuthNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// AccessToken возвращает действующий токен устройства
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	auth, err := s.Session(ctx)
	if err != nil {
		return "", err
	}

	// Токен без срока действия считается бессрочным
	if !auth.ExpiresAt.IsZero() && !s.now().Before(auth.ExpiresAt) {
		return "", ErrTokenExpired
	}
	return auth.Token, nil
}

// Logout удаляет токен устройства. Локальные события сохраняются.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.storage.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotLoggedIn
		}
		return err
	}

	s.logger.Info("Device logged out")
	return nil
}
