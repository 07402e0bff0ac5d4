package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/server/service"
	"github.com/iudanet/posync/internal/server/storage"
	"github.com/iudanet/posync/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

const (
	// StoreIDKey ключ для хранения store_id в контексте
	StoreIDKey contextKey = "store_id"
	// DeviceIDKey ключ для хранения device_id в контексте
	DeviceIDKey contextKey = "device_id"
)

// maxPushBody ограничение размера тела push-запроса
const maxPushBody = 16 << 20

// WithIdentity кладет устройство в контекст запроса (используется AuthMiddleware)
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	ctx = context.WithValue(ctx, StoreIDKey, id.StoreID)
	return context.WithValue(ctx, DeviceIDKey, id.DeviceID)
}

// GetIdentity извлекает устройство из контекста запроса
func GetIdentity(ctx context.Context) (service.Identity, bool) {
	storeID, ok := ctx.Value(StoreIDKey).(string)
	if !ok || storeID == "" {
		return service.Identity{}, false
	}
	deviceID, ok := ctx.Value(DeviceIDKey).(string)
	if !ok || deviceID == "" {
		return service.Identity{}, false
	}
	return service.Identity{StoreID: storeID, DeviceID: deviceID}, true
}

// SyncProcessor определяет операции протокола синхронизации
//
//go:generate moq -out sync_processor_mock.go . SyncProcessor
type SyncProcessor interface {
	Push(ctx context.Context, id service.Identity, req *api.PushRequest) (*api.PushResponse, error)
	Pull(ctx context.Context, id service.Identity, since int64, limit int) (*api.PullResponse, error)
	EntityHistory(ctx context.Context, id service.Identity, entityType, entityID string) (*api.EntityHistoryResponse, error)
	ResolveConflict(ctx context.Context, id service.Identity, conflictID string, resolution models.Resolution) (*api.ResolveConflictResponse, error)
}

// SyncHandler handles synchronization requests
type SyncHandler struct {
	logger   *slog.Logger
	sync     SyncProcessor
	validate *validator.Validate
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, sync SyncProcessor) *SyncHandler {
	return &SyncHandler{
		logger:   logger,
		sync:     sync,
		validate: validator.New(),
	}
}

// Push обрабатывает POST /api/v1/sync/push
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req api.PushRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPushBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(h.logger, w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Warn("Failed to decode push request", "error", err)
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn("Invalid push request", "error", err, "device_id", id.DeviceID)
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.sync.Push(r.Context(), id, &req)
	if err != nil {
		h.sendServiceError(w, "push", err)
		return
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Pull обрабатывает GET /api/v1/sync/pull?since=&limit=
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	since, err := queryInt(r, "since")
	if err != nil {
		h.logger.Warn("Invalid since parameter", "since", r.URL.Query().Get("since"), "error", err)
		sendError(h.logger, w, "invalid since parameter", http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		sendError(h.logger, w, "invalid limit parameter", http.StatusBadRequest)
		return
	}

	resp, err := h.sync.Pull(r.Context(), id, since, int(limit))
	if err != nil {
		h.sendServiceError(w, "pull", err)
		return
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// EntityHistory обрабатывает GET /api/v1/sync/entities/{type}/{id}
func (h *SyncHandler) EntityHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	resp, err := h.sync.EntityHistory(r.Context(), id, vars["type"], vars["id"])
	if err != nil {
		h.sendServiceError(w, "entity history", err)
		return
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// ResolveConflict обрабатывает POST /api/v1/conflicts/{id}/resolve
func (h *SyncHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req api.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.sync.ResolveConflict(r.Context(), id, mux.Vars(r)["id"], models.Resolution(req.Resolution))
	if err != nil {
		h.sendServiceError(w, "resolve conflict", err)
		return
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

func (h *SyncHandler) identity(w http.ResponseWriter, r *http.Request) (service.Identity, bool) {
	id, ok := GetIdentity(r.Context())
	if !ok {
		h.logger.Error("Device identity not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

func (h *SyncHandler) sendServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		sendError(h.logger, w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrBatchTooLarge):
		sendError(h.logger, w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrInvalidArgument):
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrConflictNotFound):
		sendError(h.logger, w, "conflict not found", http.StatusNotFound)
	default:
		h.logger.Error("Sync operation failed", "op", op, "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}
