package models

import (
	"encoding/json"
	"time"
)

// SyncStatus описывает состояние события в outbox
type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"   // ожидает отправки на сервер
	SyncStatusSynced    SyncStatus = "synced"    // принято сервером
	SyncStatusFailed    SyncStatus = "failed"    // отклонено сервером (ошибка валидации)
	SyncStatusDiscarded SyncStatus = "discarded" // отброшено при разрешении конфликта
)

// VectorClock maps a device id to the number of events that device has produced
// as observed by the holder of the clock.
type VectorClock map[string]int64

// Clone returns an independent copy of the clock.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for deviceID, counter := range vc {
		out[deviceID] = counter
	}
	return out
}

// LocalEvent представляет доменное событие, созданное на устройстве.
// Событие никогда не удаляется, только архивируется после синхронизации.
type LocalEvent struct {
	CreatedAt        time.Time       `json:"created_at"`                  // CreatedAt время создания события на устройстве
	SyncedAt         *time.Time      `json:"synced_at,omitempty"`         // SyncedAt время подтверждения сервером
	NextRetryAt      *time.Time      `json:"next_retry_at,omitempty"`     // NextRetryAt не отправлять раньше этого времени
	VectorClock      VectorClock     `json:"vector_clock"`                // VectorClock причинный снимок на момент создания
	EventID          string          `json:"event_id"`                    // EventID глобально уникальный идентификатор (UUID)
	StoreID          string          `json:"store_id"`                    // StoreID магазин (tenant)
	DeviceID         string          `json:"device_id"`                   // DeviceID устройство-источник
	Type             string          `json:"type"`                        // Type имя доменного события
	EntityType       string          `json:"entity_type,omitempty"`       // EntityType тип сущности (product, customer, ...)
	EntityID         string          `json:"entity_id,omitempty"`         // EntityID идентификатор сущности
	SyncStatus       SyncStatus      `json:"sync_status"`                 // SyncStatus состояние жизненного цикла
	LastError        string          `json:"last_error,omitempty"`        // LastError причина последней неудачи
	ConflictID       string          `json:"conflict_id,omitempty"`       // ConflictID открытый конфликт, блокирующий отправку
	ResolvesConflict string          `json:"resolves_conflict,omitempty"` // ResolvesConflict конфликт, на который отвечает override
	PayloadHash      string          `json:"payload_hash,omitempty"`      // PayloadHash blake2b-256 от payload (hex)
	Payload          json.RawMessage `json:"payload"`                     // Payload данные события (непрозрачны для ядра)
	Seq              int64           `json:"seq"`                         // Seq монотонный номер на устройстве
	ServerSeq        int64           `json:"server_seq,omitempty"`        // ServerSeq порядковый номер, присвоенный сервером
	SyncAttempts     int             `json:"sync_attempts"`               // SyncAttempts число попыток доставки
	Override         bool            `json:"override,omitempty"`          // Override повторная отправка по стратегии keep_mine
}

// EntityKey returns "type/id" for the addressed entity, or an empty string when
// the event does not address a single entity.
func (e *LocalEvent) EntityKey() string {
	if e.EntityType == "" || e.EntityID == "" {
		return ""
	}
	return e.EntityType + "/" + e.EntityID
}

// IsBlocked reports whether delivery is held back by an open conflict.
func (e *LocalEvent) IsBlocked() bool {
	return e.ConflictID != ""
}

// Clone создает глубокую копию события
func (e *LocalEvent) Clone() *LocalEvent {
	out := *e

	if e.Payload != nil {
		out.Payload = make(json.RawMessage, len(e.Payload))
		copy(out.Payload, e.Payload)
	}
	if e.VectorClock != nil {
		out.VectorClock = e.VectorClock.Clone()
	}
	if e.SyncedAt != nil {
		t := *e.SyncedAt
		out.SyncedAt = &t
	}
	if e.NextRetryAt != nil {
		t := *e.NextRetryAt
		out.NextRetryAt = &t
	}

	return &out
}

// NewEvent is what the domain layer hands to the outbox. Sequence number,
// vector clock and lifecycle fields are assigned by the outbox itself.
type NewEvent struct {
	Payload          json.RawMessage
	EventID          string // optional; generated when empty, reused on idempotent retries
	StoreID          string
	Type             string
	EntityType       string
	EntityID         string
	ResolvesConflict string
	Override         bool
}
