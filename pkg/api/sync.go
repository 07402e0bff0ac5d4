package api

import (
	"encoding/json"
	"time"
)

// Event представляет доменное событие в протоколе синхронизации
type Event struct {
	CreatedAt        time.Time        `json:"created_at"`
	VectorClock      map[string]int64 `json:"vector_clock"`                // причинный снимок устройства-источника
	EventID          string           `json:"event_id"`                    // UUID события
	StoreID          string           `json:"store_id"`                    // магазин (tenant)
	DeviceID         string           `json:"device_id"`                   // устройство-источник
	Type             string           `json:"type"`                        // имя доменного события
	EntityType       string           `json:"entity_type,omitempty"`       // тип сущности
	EntityID         string           `json:"entity_id,omitempty"`         // идентификатор сущности
	PayloadHash      string           `json:"payload_hash,omitempty"`      // blake2b-256 от payload (hex)
	ResolvesConflict string           `json:"resolves_conflict,omitempty"` // конфликт, который закрывает override
	Payload          json.RawMessage  `json:"payload"`
	Seq              int64            `json:"seq"`                  // номер на устройстве
	ServerSeq        int64            `json:"server_seq,omitempty"` // заполняется сервером
	Override         bool             `json:"override,omitempty"`   // повторная отправка keep_mine
}

// PushRequest представляет пакет событий одного устройства
type PushRequest struct {
	StoreID       string  `json:"store_id" validate:"required"`
	DeviceID      string  `json:"device_id" validate:"required"`
	ClientVersion string  `json:"client_version,omitempty"`
	Events        []Event `json:"events" validate:"required,min=1,dive"`
}

// AcceptedEvent событие, принятое сервером
type AcceptedEvent struct {
	EventID   string `json:"event_id"`
	ServerSeq int64  `json:"server_seq"`
}

// Коды отклонения событий
const (
	RejectValidation    = "VALIDATION_ERROR"
	RejectStoreMismatch = "STORE_MISMATCH"
	RejectHashMismatch  = "HASH_MISMATCH"
)

// RejectedEvent событие, отклоненное валидацией
type RejectedEvent struct {
	EventID string `json:"event_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConflictedEvent событие, конфликтующее с уже принятыми
type ConflictedEvent struct {
	EventID              string   `json:"event_id"`
	ConflictID           string   `json:"conflict_id"`
	Reason               string   `json:"reason"`
	EntityType           string   `json:"entity_type,omitempty"`
	EntityID             string   `json:"entity_id,omitempty"`
	ConflictingWith      []string `json:"conflicting_with"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}

// PushResponse представляет ответ сервера на пакет событий.
// Каждое событие запроса попадает ровно в один из трех списков.
type PushResponse struct {
	ServerTime        time.Time         `json:"server_time"`
	ServerVectorClock map[string]int64  `json:"server_vector_clock"`
	Accepted          []AcceptedEvent   `json:"accepted"`
	Rejected          []RejectedEvent   `json:"rejected"`
	Conflicted        []ConflictedEvent `json:"conflicted"`
	LastProcessedSeq  int64             `json:"last_processed_seq"`
}

// PullResponse представляет события магазина после заданного серверного номера
type PullResponse struct {
	ServerVectorClock map[string]int64 `json:"server_vector_clock"`
	Events            []Event          `json:"events"`
	LastSeq           int64            `json:"last_seq"`
	HasMore           bool             `json:"has_more"`
}

// EntityHistoryResponse представляет все принятые события одной сущности
type EntityHistoryResponse struct {
	EntityType string  `json:"entity_type"`
	EntityID   string  `json:"entity_id"`
	Events     []Event `json:"events"`
}

// ResolveConflictRequest сообщает серверу выбранную стратегию
type ResolveConflictRequest struct {
	Resolution string `json:"resolution" validate:"required,oneof=keep_mine take_theirs merge"`
}

// ResolveConflictResponse подтверждение разрешения конфликта
type ResolveConflictResponse struct {
	ResolvedAt time.Time `json:"resolved_at"`
	ConflictID string    `json:"conflict_id"`
	Resolution string    `json:"resolution"`
	Status     string    `json:"status"`
}
