package api

import (
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/pkg/api"
)

// ToWire конвертирует локальное событие в формат протокола
func ToWire(event *models.LocalEvent) api.Event {
	return api.Event{
		EventID:          event.EventID,
		StoreID:          event.StoreID,
		DeviceID:         event.DeviceID,
		Seq:              event.Seq,
		Type:             event.Type,
		EntityType:       event.EntityType,
		EntityID:         event.EntityID,
		Payload:          event.Payload,
		PayloadHash:      event.PayloadHash,
		VectorClock:      event.VectorClock.Clone(),
		ResolvesConflict: event.ResolvesConflict,
		Override:         event.Override,
		CreatedAt:        event.CreatedAt,
	}
}

// FromWire конвертирует событие сервера в локальную модель.
// События сервера уже синхронизированы.
func FromWire(event api.Event) *models.LocalEvent {
	return &models.LocalEvent{
		EventID:          event.EventID,
		StoreID:          event.StoreID,
		DeviceID:         event.DeviceID,
		Seq:              event.Seq,
		ServerSeq:        event.ServerSeq,
		Type:             event.Type,
		EntityType:       event.EntityType,
		EntityID:         event.EntityID,
		Payload:          event.Payload,
		PayloadHash:      event.PayloadHash,
		VectorClock:      models.VectorClock(event.VectorClock).Clone(),
		ResolvesConflict: event.ResolvesConflict,
		Override:         event.Override,
		SyncStatus:       models.SyncStatusSynced,
		CreatedAt:        event.CreatedAt,
	}
}

// FromWireAll конвертирует список событий сервера
func FromWireAll(events []api.Event) []*models.LocalEvent {
	out := make([]*models.LocalEvent, 0, len(events))
	for _, e := range events {
		out = append(out, FromWire(e))
	}
	return out
}
