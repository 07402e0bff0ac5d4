package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/server/jwt"
	"github.com/iudanet/posync/internal/server/storage"
)

// jsonLogger пишет JSON-строки в буфер, чтобы тест мог разобрать атрибуты
func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		handler   http.HandlerFunc
		name      string
		status    int
		wantLevel string
	}{
		{
			name:      "ok",
			status:    http.StatusOK,
			wantLevel: "INFO",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("success"))
			},
		},
		{
			name:      "client error",
			status:    http.StatusBadRequest,
			wantLevel: "WARN",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
		},
		{
			name:      "server error",
			status:    http.StatusInternalServerError,
			wantLevel: "ERROR",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			wrapped := LoggingMiddleware(jsonLogger(&buf))(tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/pull", nil)
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

			rec := lastRecord(t, &buf)
			assert.Equal(t, "HTTP request", rec["msg"])
			assert.Equal(t, tt.wantLevel, rec["level"])
			assert.Equal(t, float64(tt.status), rec["status"])
			assert.Equal(t, "/api/v1/sync/pull", rec["route"])
			assert.Equal(t, w.Header().Get(RequestIDHeader), rec["request_id"])
		})
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	wrapped := LoggingMiddleware(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", lastRecord(t, &buf)["request_id"])
}

func TestLoggingMiddleware_RouteTemplateAndDevice(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	tokens := jwt.NewService("secret", time.Hour)
	token, _, err := tokens.GenerateDeviceToken("store-1", "device-a")
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(AuthMiddleware(logger, tokens, registry(&storage.Device{StoreID: "store-1", DeviceID: "device-a"}, nil)))
	protected.HandleFunc("/sync/entities/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/entities/product/secret-sku", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "/api/v1/sync/entities/{type}/{id}", rec["route"])
	assert.Equal(t, "store-1", rec["store_id"])
	assert.Equal(t, "device-a", rec["device_id"])
	assert.NotContains(t, buf.String(), token)
}

func TestLoggingMiddleware_AllowsWebsocketUpgrade(t *testing.T) {
	var buf bytes.Buffer
	upgrader := websocket.Upgrader{}
	handler := LoggingMiddleware(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		_ = conn.Close()
	}))

	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))
}

func TestLoggingWithSkip(t *testing.T) {
	var buf bytes.Buffer
	wrapped := LoggingWithSkip(jsonLogger(&buf), []string{"/api/v1/health"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, buf.String())

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/sync/pull", nil))
	assert.Contains(t, buf.String(), "HTTP request")
}

func TestResponseWriter_CapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)
	n, err := rw.Write([]byte("12345"))
	require.NoError(t, err)
	_, _ = rw.Write([]byte("678"))

	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, rw.statusCode)
	assert.Equal(t, int64(8), rw.written)
	assert.Equal(t, rec, rw.Unwrap())

	// httptest.ResponseRecorder не поддерживает Hijack
	_, _, err = rw.Hijack()
	assert.Error(t, err)
}

func TestSetDevice_WithoutLogging(t *testing.T) {
	assert.NotPanics(t, func() { setDevice(context.Background(), "s", "d") })
}
