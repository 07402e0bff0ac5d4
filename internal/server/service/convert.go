package service

import (
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/pkg/api"
)

func fromWire(event api.Event) *models.LocalEvent {
	return &models.LocalEvent{
		EventID:          event.EventID,
		StoreID:          event.StoreID,
		DeviceID:         event.DeviceID,
		Seq:              event.Seq,
		Type:             event.Type,
		EntityType:       event.EntityType,
		EntityID:         event.EntityID,
		Payload:          event.Payload,
		PayloadHash:      event.PayloadHash,
		VectorClock:      models.VectorClock(event.VectorClock).Clone(),
		ResolvesConflict: event.ResolvesConflict,
		Override:         event.Override,
		CreatedAt:        event.CreatedAt,
	}
}

func toWire(event *models.LocalEvent) api.Event {
	return api.Event{
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
		VectorClock:      event.VectorClock.Clone(),
		ResolvesConflict: event.ResolvesConflict,
		Override:         event.Override,
		CreatedAt:        event.CreatedAt,
	}
}

func toWireAll(events []*models.LocalEvent) []api.Event {
	out := make([]api.Event, 0, len(events))
	for _, e := range events {
		out = append(out, toWire(e))
	}
	return out
}
