package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/posync/internal/client/api"
	"github.com/iudanet/posync/internal/crypto"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/server/hub"
	"github.com/iudanet/posync/internal/server/jwt"
	"github.com/iudanet/posync/internal/server/service"
	"github.com/iudanet/posync/internal/server/storage/sqlite"
	"github.com/iudanet/posync/pkg/api"
)

type testServer struct {
	url    string
	store  *sqlite.Storage
	tokens *jwt.Service
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)

	notifications := hub.New(logger, hub.DefaultConfig())
	tokens := jwt.NewService("e2e-secret", time.Hour)

	srv := httptest.NewServer(newRouter(routerDeps{
		logger:  logger,
		sync:    service.NewSyncService(store, store, notifications, logger, service.Config{MaxBatch: 10}),
		stream:  notifications,
		tokens:  tokens,
		devices: store,
		db:      store.DB(),
	}))
	t.Cleanup(func() {
		notifications.Close()
		srv.Close()
		_ = store.Close()
	})

	return &testServer{url: srv.URL, store: store, tokens: tokens}
}

func (s *testServer) token(t *testing.T, storeID, deviceID string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, registerAndIssue(context.Background(), s.store, s.tokens, storeID, deviceID, &out))
	return strings.SplitN(out.String(), "\n", 2)[0]
}

func event(storeID, deviceID string, seq int64, eventType, entityID string, clock map[string]int64, payload string) api.Event {
	return api.Event{
		CreatedAt:   time.Now().UTC(),
		EventID:     uuid.NewString(),
		StoreID:     storeID,
		DeviceID:    deviceID,
		Seq:         seq,
		Type:        eventType,
		EntityType:  models.EntityProduct,
		EntityID:    entityID,
		Payload:     json.RawMessage(payload),
		PayloadHash: crypto.PayloadHash([]byte(payload)),
		VectorClock: clock,
	}
}

func TestServer_PushPullRoundTrip(t *testing.T) {
	s := startTestServer(t)
	ctx := context.Background()
	client := clientapi.NewClient(s.url)

	tokenA := s.token(t, "store-1", "device-a")
	tokenB := s.token(t, "store-1", "device-b")

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)

	created := event("store-1", "device-a", 1, models.EventProductCreated, "p1",
		map[string]int64{"device-a": 1}, `{"product_id":"p1","name":"Milk"}`)
	pushed, err := client.Push(ctx, tokenA, api.PushRequest{StoreID: "store-1", DeviceID: "device-a", Events: []api.Event{created}})
	require.NoError(t, err)
	require.Len(t, pushed.Accepted, 1)
	assert.Equal(t, int64(1), pushed.Accepted[0].ServerSeq)

	pulled, err := client.Pull(ctx, tokenB, 0, 100)
	require.NoError(t, err)
	require.Len(t, pulled.Events, 1)
	assert.Equal(t, created.EventID, pulled.Events[0].EventID)
	assert.Equal(t, created.PayloadHash, pulled.Events[0].PayloadHash)
	assert.Equal(t, int64(1), pulled.LastSeq)
	assert.Equal(t, map[string]int64{"device-a": 1}, pulled.ServerVectorClock)

	history, err := client.EntityHistory(ctx, tokenB, models.EntityProduct, "p1")
	require.NoError(t, err)
	assert.Len(t, history.Events, 1)
}

func TestServer_ConflictAndResolve(t *testing.T) {
	s := startTestServer(t)
	ctx := context.Background()
	client := clientapi.NewClient(s.url)

	tokenA := s.token(t, "store-1", "device-a")
	tokenB := s.token(t, "store-1", "device-b")

	_, err := client.Push(ctx, tokenB, api.PushRequest{StoreID: "store-1", DeviceID: "device-b", Events: []api.Event{
		event("store-1", "device-b", 1, models.EventPriceChanged, "p1", map[string]int64{"device-b": 1}, `{"product_id":"p1","price":"1.00"}`),
	}})
	require.NoError(t, err)

	resp, err := client.Push(ctx, tokenA, api.PushRequest{StoreID: "store-1", DeviceID: "device-a", Events: []api.Event{
		event("store-1", "device-a", 1, models.EventPriceChanged, "p1", map[string]int64{"device-a": 1}, `{"product_id":"p1","price":"2.00"}`),
	}})
	require.NoError(t, err)
	require.Len(t, resp.Conflicted, 1)
	assert.True(t, resp.Conflicted[0].RequiresManualReview)

	resolved, err := client.ResolveConflict(ctx, tokenA, resp.Conflicted[0].ConflictID, api.ResolveConflictRequest{Resolution: "take_theirs"})
	require.NoError(t, err)
	assert.Equal(t, "resolved", resolved.Status)

	_, err = client.ResolveConflict(ctx, tokenA, "unknown", api.ResolveConflictRequest{Resolution: "take_theirs"})
	terr, ok := clientapi.AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
}

func TestServer_AuthErrors(t *testing.T) {
	s := startTestServer(t)
	ctx := context.Background()
	client := clientapi.NewClient(s.url)

	token := s.token(t, "store-1", "device-a")

	// пакет от имени другого устройства
	_, err := client.Push(ctx, token, api.PushRequest{StoreID: "store-1", DeviceID: "device-b", Events: []api.Event{
		event("store-1", "device-b", 1, models.EventProductCreated, "p1", map[string]int64{"device-b": 1}, `{}`),
	}})
	terr, ok := clientapi.AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, terr.StatusCode)

	require.NoError(t, s.store.RevokeDevice(ctx, "store-1", "device-a", time.Now()))
	_, err = client.Pull(ctx, token, 0, 10)
	terr, ok = clientapi.AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, terr.StatusCode)

	// повторная регистрация снимает отзыв
	fresh := s.token(t, "store-1", "device-a")
	_, err = client.Pull(ctx, fresh, 0, 10)
	assert.NoError(t, err)

	unregistered, _, err := s.tokens.GenerateDeviceToken("store-1", "device-z")
	require.NoError(t, err)
	_, err = client.Pull(ctx, unregistered, 0, 10)
	terr, ok = clientapi.AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, terr.StatusCode)
}

func TestServer_WebsocketNotification(t *testing.T) {
	s := startTestServer(t)
	ctx := context.Background()
	client := clientapi.NewClient(s.url)

	tokenA := s.token(t, "store-1", "device-a")
	tokenB := s.token(t, "store-1", "device-b")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+tokenB)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.url, "http")+"/api/v1/ws", header)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// регистрация в hub завершается после upgrade; повторяем push, пока не придет уведомление
	received := make(chan api.Notification, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var n api.Notification
		if json.Unmarshal(msg, &n) == nil {
			received <- n
		}
	}()

	var seq int64
	require.Eventually(t, func() bool {
		seq++
		_, err := client.Push(ctx, tokenA, api.PushRequest{StoreID: "store-1", DeviceID: "device-a", Events: []api.Event{
			event("store-1", "device-a", seq, models.EventStockDeltaApplied, "p1", map[string]int64{"device-a": seq}, `{"delta":1}`),
		}})
		if err != nil {
			return false
		}
		select {
		case n := <-received:
			assert.Equal(t, api.NotificationEventsAvailable, n.Type)
			assert.Equal(t, "store-1", n.StoreID)
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.url, "http")+"/api/v1/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeviceFlags(t *testing.T) {
	store, device, err := deviceFlags("token", []string{"--store", "store-1", "--device", "device-a"})
	require.NoError(t, err)
	assert.Equal(t, "store-1", store)
	assert.Equal(t, "device-a", device)

	_, _, err = deviceFlags("token", []string{"--store", "store-1"})
	assert.ErrorIs(t, err, errUsage)

	_, _, err = deviceFlags("token", []string{"--bogus"})
	assert.ErrorIs(t, err, errUsage)
}

func TestRegisterAndIssue(t *testing.T) {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	tokens := jwt.NewService("secret", time.Hour)
	var out bytes.Buffer
	require.NoError(t, registerAndIssue(context.Background(), store, tokens, "store-1", "device-a", &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	claims, err := tokens.ValidateDeviceToken(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "device-a", claims.DeviceID)
	assert.True(t, strings.HasPrefix(lines[1], "expires: "))

	device, err := store.GetDevice(context.Background(), "store-1", "device-a")
	require.NoError(t, err)
	assert.Nil(t, device.RevokedAt)
}
