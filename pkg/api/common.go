package api

import "time"

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse ответ проверки доступности сервера
type HealthResponse struct {
	ServerTime time.Time `json:"server_time"`
	Status     string    `json:"status"`
}

// Типы уведомлений websocket
const (
	NotificationEventsAvailable = "events_available"
	NotificationConflictClosed  = "conflict_resolved"
)

// Notification уведомление, которое сервер рассылает подключенным устройствам магазина
type Notification struct {
	Type    string `json:"type"`
	StoreID string `json:"store_id"`
	LastSeq int64  `json:"last_seq,omitempty"`
}
