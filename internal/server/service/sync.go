// Package service реализует обработку протокола синхронизации на сервере:
// прием пакетов событий, обнаружение конфликтов и выдачу журнала магазина.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/crypto"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/server/storage"
	"github.com/iudanet/posync/internal/validation"
	"github.com/iudanet/posync/pkg/api"
)

var (
	// ErrForbidden пакет подписан не тем устройством, которое указано в токене
	ErrForbidden = errors.New("store or device does not match token")
	// ErrBatchTooLarge пакет превышает допустимый размер
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrInvalidArgument некорректные параметры запроса
	ErrInvalidArgument = errors.New("invalid argument")
)

const (
	DefaultMaxBatch  = 1000
	DefaultPullLimit = 500
	MaxPullLimit     = 5000
)

// conflictNamespace пространство имен для детерминированных идентификаторов конфликтов
var conflictNamespace = uuid.MustParse("6f1c2b7e-4a53-4a7b-9d8e-2f0c1e5a9b31")

// commutative события, которые складываются в любом порядке и не конфликтуют
var commutative = map[string]bool{
	models.EventStockDeltaApplied: true,
}

// mergeable события, для которых клиент умеет объединять изменения без оператора
var mergeable = map[string]bool{
	models.EventProductUpdated:  true,
	models.EventCustomerUpdated: true,
}

// Identity устройство, от имени которого выполняется запрос
type Identity struct {
	StoreID  string
	DeviceID string
}

// Notifier рассылает уведомления подключенным устройствам магазина
//
//go:generate moq -out notifier_mock.go . Notifier
type Notifier interface {
	Notify(storeID string, n api.Notification)
}

// Config параметры сервиса
type Config struct {
	MaxBatch int
}

// SyncService обрабатывает запросы синхронизации.
// Пакеты обрабатываются последовательно: порядок серверных номеров
// совпадает с порядком проверки конфликтов.
type SyncService struct {
	events    storage.EventStorage
	conflicts storage.ConflictStorage
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
	maxBatch  int
	mu        sync.Mutex
}

// NewSyncService создает сервис. notifier может быть nil.
func NewSyncService(
	events storage.EventStorage,
	conflicts storage.ConflictStorage,
	notifier Notifier,
	logger *slog.Logger,
	cfg Config,
) *SyncService {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}
	return &SyncService{
		events:    events,
		conflicts: conflicts,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		maxBatch:  cfg.MaxBatch,
	}
}

// WithClock подменяет источник времени
func (s *SyncService) WithClock(now func() time.Time) *SyncService {
	s.now = now
	return s
}

// Push принимает пакет событий устройства. Каждое событие попадает ровно в
// один из списков ответа: accepted, rejected или conflicted.
func (s *SyncService) Push(ctx context.Context, id Identity, req *api.PushRequest) (*api.PushResponse, error) {
	if req.StoreID != id.StoreID || req.DeviceID != id.DeviceID {
		return nil, ErrForbidden
	}
	if len(req.Events) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d events, limit %d", ErrBatchTooLarge, len(req.Events), s.maxBatch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &api.PushResponse{
		Accepted:   []api.AcceptedEvent{},
		Rejected:   []api.RejectedEvent{},
		Conflicted: []api.ConflictedEvent{},
	}
	appended := 0

	for i := range req.Events {
		event := fromWire(req.Events[i])

		if code, msg := validateEvent(id, event); code != "" {
			s.logger.Warn("Event rejected",
				"event_id", event.EventID, "device_id", id.DeviceID, "code", code, "reason", msg)
			resp.Rejected = append(resp.Rejected, api.RejectedEvent{EventID: event.EventID, Code: code, Message: msg})
			continue
		}

		existing, err := s.events.GetEvent(ctx, event.EventID)
		switch {
		case err == nil:
			if existing.StoreID != id.StoreID || existing.DeviceID != id.DeviceID {
				resp.Rejected = append(resp.Rejected, api.RejectedEvent{
					EventID: event.EventID,
					Code:    api.RejectValidation,
					Message: "event id already used by another device",
				})
				continue
			}
			// повторная доставка: подтверждаем тем же номером
			resp.Accepted = append(resp.Accepted, api.AcceptedEvent{EventID: event.EventID, ServerSeq: existing.ServerSeq})
			continue
		case !errors.Is(err, storage.ErrEventNotFound):
			return nil, fmt.Errorf("failed to look up event %s: %w", event.EventID, err)
		}

		conflict, err := s.detectConflict(ctx, event)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			resp.Conflicted = append(resp.Conflicted, toConflicted(conflict))
			continue
		}

		if err := s.events.AppendEvent(ctx, event); err != nil {
			if !errors.Is(err, storage.ErrDuplicateEvent) {
				return nil, fmt.Errorf("failed to append event %s: %w", event.EventID, err)
			}
			existing, err := s.events.GetEvent(ctx, event.EventID)
			if err != nil {
				return nil, fmt.Errorf("failed to look up event %s: %w", event.EventID, err)
			}
			event.ServerSeq = existing.ServerSeq
		} else {
			appended++
		}

		if event.Override && event.ResolvesConflict != "" {
			s.closeConflict(ctx, id.StoreID, event.ResolvesConflict, models.ResolutionKeepMine)
		}

		resp.Accepted = append(resp.Accepted, api.AcceptedEvent{EventID: event.EventID, ServerSeq: event.ServerSeq})
	}

	clock, err := s.events.StoreClock(ctx, id.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store clock: %w", err)
	}
	lastSeq, err := s.events.LastSeq(ctx, id.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last seq: %w", err)
	}

	resp.ServerTime = s.now().UTC()
	resp.ServerVectorClock = clock
	resp.LastProcessedSeq = lastSeq

	s.logger.Info("Push processed",
		"store_id", id.StoreID,
		"device_id", id.DeviceID,
		"accepted", len(resp.Accepted),
		"rejected", len(resp.Rejected),
		"conflicted", len(resp.Conflicted),
		"last_seq", lastSeq)

	if appended > 0 && s.notifier != nil {
		s.notifier.Notify(id.StoreID, api.Notification{
			Type:    api.NotificationEventsAvailable,
			StoreID: id.StoreID,
			LastSeq: lastSeq,
		})
	}

	return resp, nil
}

// detectConflict ищет принятые события той же сущности от других устройств,
// которых не видело входящее событие.
func (s *SyncService) detectConflict(ctx context.Context, event *models.LocalEvent) (*storage.Conflict, error) {
	if event.EntityKey() == "" || event.Override || commutative[event.Type] {
		return nil, nil
	}

	history, err := s.events.EntityHistory(ctx, event.StoreID, event.EntityType, event.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of %s: %w", event.EntityKey(), err)
	}

	var with []string
	for _, other := range history {
		if other.DeviceID == event.DeviceID || commutative[other.Type] {
			continue
		}
		if crdt.Descends(event.VectorClock, other.VectorClock) {
			continue
		}
		with = append(with, other.EventID)
	}
	if len(with) == 0 {
		return nil, nil
	}

	conflict := &storage.Conflict{
		CreatedAt:            s.now().UTC(),
		ID:                   conflictID(event.EventID),
		StoreID:              event.StoreID,
		EventID:              event.EventID,
		DeviceID:             event.DeviceID,
		EntityType:           event.EntityType,
		EntityID:             event.EntityID,
		Reason:               fmt.Sprintf("%s of %s is concurrent with %d event(s) from other devices", event.Type, event.EntityKey(), len(with)),
		Status:               models.ConflictStatusPending,
		ConflictingWith:      with,
		RequiresManualReview: !mergeable[event.Type],
	}

	stored, created, err := s.conflicts.CreateConflict(ctx, conflict)
	if err != nil {
		return nil, fmt.Errorf("failed to store conflict: %w", err)
	}
	if created {
		s.logger.Info("Conflict detected",
			"conflict_id", stored.ID,
			"event_id", event.EventID,
			"entity", event.EntityKey(),
			"conflicting_with", len(with))
	}

	return stored, nil
}

// closeConflict помечает конфликт разрешенным; ошибки только логируются,
// событие уже принято.
func (s *SyncService) closeConflict(ctx context.Context, storeID, conflictID string, resolution models.Resolution) {
	c, err := s.conflicts.ResolveConflict(ctx, storeID, conflictID, resolution, s.now().UTC())
	if err != nil {
		s.logger.Warn("Failed to close conflict by override", "conflict_id", conflictID, "error", err)
		return
	}
	s.logger.Debug("Conflict closed by override", "conflict_id", c.ID, "resolution", c.Resolution)
}

// Pull возвращает события магазина с серверным номером больше since
func (s *SyncService) Pull(ctx context.Context, id Identity, since int64, limit int) (*api.PullResponse, error) {
	if since < 0 {
		return nil, fmt.Errorf("%w: since must not be negative", ErrInvalidArgument)
	}
	switch {
	case limit <= 0:
		limit = DefaultPullLimit
	case limit > MaxPullLimit:
		limit = MaxPullLimit
	}

	events, err := s.events.ListSince(ctx, id.StoreID, since, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	clock, err := s.events.StoreClock(ctx, id.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store clock: %w", err)
	}

	resp := &api.PullResponse{
		ServerVectorClock: clock,
		Events:            toWireAll(events),
		LastSeq:           since,
		HasMore:           hasMore,
	}
	if len(events) > 0 {
		resp.LastSeq = events[len(events)-1].ServerSeq
	}

	s.logger.Debug("Pull served",
		"store_id", id.StoreID, "device_id", id.DeviceID, "since", since, "events", len(events), "has_more", hasMore)

	return resp, nil
}

// EntityHistory возвращает все принятые события одной сущности магазина
func (s *SyncService) EntityHistory(ctx context.Context, id Identity, entityType, entityID string) (*api.EntityHistoryResponse, error) {
	if err := validation.ValidateEntityRef(entityType, entityID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	events, err := s.events.EntityHistory(ctx, id.StoreID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entity history: %w", err)
	}

	return &api.EntityHistoryResponse{
		EntityType: entityType,
		EntityID:   entityID,
		Events:     toWireAll(events),
	}, nil
}

// ResolveConflict фиксирует выбранную оператором стратегию.
// Повторный вызов для разрешенного конфликта возвращает сохраненное решение.
func (s *SyncService) ResolveConflict(ctx context.Context, id Identity, conflictID string, resolution models.Resolution) (*api.ResolveConflictResponse, error) {
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: unknown resolution %q", ErrInvalidArgument, resolution)
	}

	before, err := s.conflicts.GetConflict(ctx, id.StoreID, conflictID)
	if err != nil {
		return nil, err
	}

	c, err := s.conflicts.ResolveConflict(ctx, id.StoreID, conflictID, resolution, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if before.Status == models.ConflictStatusPending {
		s.logger.Info("Conflict resolved",
			"conflict_id", c.ID, "resolution", c.Resolution, "device_id", id.DeviceID)
		if s.notifier != nil {
			s.notifier.Notify(id.StoreID, api.Notification{
				Type:    api.NotificationConflictClosed,
				StoreID: id.StoreID,
			})
		}
	}

	resp := &api.ResolveConflictResponse{
		ConflictID: c.ID,
		Resolution: string(c.Resolution),
		Status:     string(c.Status),
	}
	if c.ResolvedAt != nil {
		resp.ResolvedAt = *c.ResolvedAt
	}
	return resp, nil
}

// validateEvent возвращает код и причину отклонения или пустой код
func validateEvent(id Identity, event *models.LocalEvent) (string, string) {
	if err := validation.ValidateID(event.EventID); err != nil {
		return api.RejectValidation, "invalid event id: " + err.Error()
	}
	if event.StoreID != id.StoreID {
		return api.RejectStoreMismatch, fmt.Sprintf("event belongs to store %q", event.StoreID)
	}
	if event.DeviceID != id.DeviceID {
		return api.RejectValidation, fmt.Sprintf("event belongs to device %q", event.DeviceID)
	}
	if err := validation.ValidateEventType(event.Type); err != nil {
		return api.RejectValidation, err.Error()
	}
	if event.EntityType != "" || event.EntityID != "" {
		if err := validation.ValidateEntityRef(event.EntityType, event.EntityID); err != nil {
			return api.RejectValidation, err.Error()
		}
	}
	if event.Seq <= 0 {
		return api.RejectValidation, "seq must be positive"
	}
	if event.VectorClock[event.DeviceID] < event.Seq {
		return api.RejectValidation, "vector clock does not cover own seq"
	}
	if event.Override && event.ResolvesConflict == "" {
		return api.RejectValidation, "override must reference a conflict"
	}
	if !isJSONObject(event.Payload) {
		return api.RejectValidation, "payload must be a JSON object"
	}
	if err := crypto.VerifyPayloadHash(event.Payload, event.PayloadHash); err != nil {
		return api.RejectHashMismatch, err.Error()
	}
	return "", ""
}

func isJSONObject(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}

func conflictID(eventID string) string {
	return uuid.NewSHA1(conflictNamespace, []byte("conflict:"+eventID)).String()
}

func toConflicted(c *storage.Conflict) api.ConflictedEvent {
	with := c.ConflictingWith
	if with == nil {
		with = []string{}
	}
	return api.ConflictedEvent{
		EventID:              c.EventID,
		ConflictID:           c.ID,
		Reason:               c.Reason,
		EntityType:           c.EntityType,
		EntityID:             c.EntityID,
		ConflictingWith:      with,
		RequiresManualReview: c.RequiresManualReview,
	}
}
