package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/server/jwt"
)

// mockAuthStorage хранит токен в памяти и повторяет привязку к устройству
type mockAuthStorage struct {
	data    *storage.AuthData
	bound   *storage.DeviceBinding
	saveErr error
	getErr  error
}

func (m *mockAuthStorage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.bound == nil {
		m.bound = &storage.DeviceBinding{StoreID: auth.StoreID, DeviceID: auth.DeviceID, BoundAt: auth.LoggedInAt}
	} else if m.bound.StoreID != auth.StoreID || m.bound.DeviceID != auth.DeviceID {
		return storage.ErrDeviceMismatch
	}
	copied := *auth
	m.data = &copied
	return nil
}

func (m *mockAuthStorage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.data == nil {
		return nil, storage.ErrAuthNotFound
	}
	copied := *m.data
	return &copied, nil
}

func (m *mockAuthStorage) DeleteAuth(ctx context.Context) error {
	if m.data == nil {
		return storage.ErrAuthNotFound
	}
	m.data = nil
	return nil
}

func (m *mockAuthStorage) BoundDevice(ctx context.Context) (*storage.DeviceBinding, error) {
	if m.bound == nil {
		return nil, storage.ErrAuthNotFound
	}
	return m.bound, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func issue(t *testing.T, ttl time.Duration, storeID, deviceID string) string {
	t.Helper()
	token, _, err := jwt.NewService("secret", ttl).
		WithClock(func() time.Time { return testNow }).
		GenerateDeviceToken(storeID, deviceID)
	require.NoError(t, err)
	return token
}

func newTestService(m *mockAuthStorage) (*Service, *time.Time) {
	now := testNow
	svc := NewService(m, testLogger()).WithClock(func() time.Time { return now })
	return svc, &now
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	m := &mockAuthStorage{}
	svc, _ := newTestService(m)

	token := issue(t, time.Hour, "store-1", "device-a")

	auth, err := svc.Login(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "store-1", auth.StoreID)
	assert.Equal(t, "device-a", auth.DeviceID)
	assert.Equal(t, testNow.Add(time.Hour), auth.ExpiresAt)
	assert.Equal(t, testNow, auth.LoggedInAt)

	require.NotNil(t, m.data)
	assert.Equal(t, token, m.data.Token)

	got, err := svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestLogin_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage token", func(t *testing.T) {
		svc, _ := newTestService(&mockAuthStorage{})
		_, err := svc.Login(ctx, "garbage")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("invalid device id", func(t *testing.T) {
		svc, _ := newTestService(&mockAuthStorage{})
		_, err := svc.Login(ctx, issue(t, time.Hour, "store-1", "bad device"))
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		svc, now := newTestService(&mockAuthStorage{})
		token := issue(t, time.Minute, "store-1", "device-a")
		*now = testNow.Add(time.Hour)
		_, err := svc.Login(ctx, token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("another device", func(t *testing.T) {
		m := &mockAuthStorage{}
		svc, _ := newTestService(m)
		_, err := svc.Login(ctx, issue(t, time.Hour, "store-1", "device-a"))
		require.NoError(t, err)
		require.NoError(t, svc.Logout(ctx))

		_, err = svc.Login(ctx, issue(t, time.Hour, "store-1", "device-b"))
		assert.ErrorIs(t, err, storage.ErrDeviceMismatch)
		assert.ErrorContains(t, err, "store-1/device-b")
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, _ := newTestService(&mockAuthStorage{saveErr: errors.New("disk full")})
		_, err := svc.Login(ctx, issue(t, time.Hour, "store-1", "device-a"))
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestAccessToken(t *testing.T) {
	ctx := context.Background()
	m := &mockAuthStorage{}
	svc, now := newTestService(m)

	_, err := svc.AccessToken(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = svc.Login(ctx, issue(t, time.Hour, "store-1", "device-a"))
	require.NoError(t, err)

	*now = testNow.Add(time.Hour)
	_, err = svc.AccessToken(ctx)
	assert.ErrorIs(t, err, ErrTokenExpired)

	m.getErr = errors.New("io error")
	_, err = svc.AccessToken(ctx)
	assert.ErrorContains(t, err, "io error")
}

func TestAccessToken_NoExpiry(t *testing.T) {
	ctx := context.Background()
	svc, now := newTestService(&mockAuthStorage{})

	auth, err := svc.Login(ctx, issue(t, 0, "store-1", "device-a"))
	require.NoError(t, err)
	assert.True(t, auth.ExpiresAt.IsZero())

	*now = testNow.Add(365 * 24 * time.Hour)
	_, err = svc.AccessToken(ctx)
	assert.NoError(t, err)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&mockAuthStorage{})

	assert.ErrorIs(t, svc.Logout(ctx), ErrNotLoggedIn)

	_, err := svc.Login(ctx, issue(t, time.Hour, "store-1", "device-a"))
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	_, err = svc.Session(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}
