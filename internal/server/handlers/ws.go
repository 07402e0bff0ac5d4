package handlers

import (
	"log/slog"
	"net/http"
)

// StreamServer держит websocket-соединение устройства
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, storeID, deviceID string)
}

// WebsocketHandler подключает устройства к рассылке уведомлений
type WebsocketHandler struct {
	logger *slog.Logger
	stream StreamServer
}

// NewWebsocketHandler creates a new websocket handler
func NewWebsocketHandler(logger *slog.Logger, stream StreamServer) *WebsocketHandler {
	return &WebsocketHandler{logger: logger, stream: stream}
}

// Connect обрабатывает GET /api/v1/ws
func (h *WebsocketHandler) Connect(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIdentity(r.Context())
	if !ok {
		h.logger.Error("Device identity not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.stream.Serve(w, r, id.StoreID, id.DeviceID)
}
