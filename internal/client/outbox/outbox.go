// Package outbox is the append-only log of locally produced domain events
// and their delivery lifecycle.
package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/crypto"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/validation"
)

// ErrArchiveDisabled is returned by ArchiveSynced when no archiver is configured.
var ErrArchiveDisabled = errors.New("archive is not configured")

//go:generate moq -out archiver_mock.go . Archiver

// Archiver ships synced events to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, events []*models.LocalEvent) error
}

// Config holds retry settings of the outbox.
type Config struct {
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
}

// DefaultConfig returns the retry settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		BackoffBase:       5 * time.Second,
		BackoffMax:        10 * time.Minute,
		BackoffMultiplier: 2,
	}
}

// Stats are the passive signals shown to the operator.
type Stats struct {
	Pending       int `json:"pending"`
	Failed        int `json:"failed"`
	Synced        int `json:"synced"`
	Discarded     int `json:"discarded"`
	OpenConflicts int `json:"open_conflicts"`
	Corrupt       int `json:"corrupt,omitempty"`
}

// Outbox stamps, stores and tracks local events.
type Outbox struct {
	events    storage.EventStorage
	conflicts storage.ConflictStorage
	clock     *crdt.ClockManager
	archiver  Archiver
	logger    *slog.Logger
	now       func() time.Time
	storeID   string
	cfg       Config
}

// New creates an outbox for the device owning clock.
func New(events storage.EventStorage, conflicts storage.ConflictStorage, clock *crdt.ClockManager, storeID string, cfg Config, logger *slog.Logger) *Outbox {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultConfig().BackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultConfig().BackoffMax
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = DefaultConfig().BackoffMultiplier
	}

	return &Outbox{
		events:    events,
		conflicts: conflicts,
		clock:     clock,
		logger:    logger,
		now:       time.Now,
		storeID:   storeID,
		cfg:       cfg,
	}
}

// WithArchiver enables ArchiveSynced.
func (o *Outbox) WithArchiver(a Archiver) *Outbox {
	o.archiver = a
	return o
}

// WithClock replaces the time source. Used by tests.
func (o *Outbox) WithClock(now func() time.Time) *Outbox {
	o.now = now
	return o
}

// DeviceID returns the device this outbox writes for.
func (o *Outbox) DeviceID() string {
	return o.clock.DeviceID()
}

// StoreID returns the store (tenant) of the device.
func (o *Outbox) StoreID() string {
	return o.storeID
}

// Append stamps the event with the next seq and a vector clock tick and
// stores it as pending. The tick and the write happen in one transaction.
// Reusing an event id returns storage.ErrDuplicateEvent.
func (o *Outbox) Append(ctx context.Context, in models.NewEvent) (*models.LocalEvent, error) {
	if err := validation.ValidateEventType(in.Type); err != nil {
		return nil, err
	}
	if in.EntityType != "" || in.EntityID != "" {
		if err := validation.ValidateEntityRef(in.EntityType, in.EntityID); err != nil {
			return nil, err
		}
	}

	payload, err := normalizePayload(in.Payload)
	if err != nil {
		return nil, err
	}

	eventID := in.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	} else if err := validation.ValidateID(eventID); err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}

	storeID := in.StoreID
	if storeID == "" {
		storeID = o.storeID
	}

	var event *models.LocalEvent

	_, err = o.clock.Tick(func(stamp crdt.Stamp) error {
		event = &models.LocalEvent{
			EventID:          eventID,
			StoreID:          storeID,
			DeviceID:         stamp.State.DeviceID,
			Seq:              stamp.Seq,
			Type:             in.Type,
			EntityType:       in.EntityType,
			EntityID:         in.EntityID,
			Payload:          payload,
			PayloadHash:      crypto.PayloadHash(payload),
			VectorClock:      stamp.Clock,
			SyncStatus:       models.SyncStatusPending,
			ResolvesConflict: in.ResolvesConflict,
			Override:         in.Override,
			CreatedAt:        o.now().UTC(),
		}
		return o.events.AppendEvent(ctx, event, stamp.State)
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEvent) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to append event: %w", err)
	}

	o.logger.Debug("Event appended",
		"event_id", event.EventID,
		"type", event.Type,
		"seq", event.Seq)

	return event, nil
}

// normalizePayload requires a JSON object and compacts it; an empty payload becomes {}.
func normalizePayload(payload json.RawMessage) (json.RawMessage, error) {
	if len(payload) == 0 {
		return json.RawMessage(`{}`), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}

	// хеш считается по компактной форме: так payload уходит по сети
	var out bytes.Buffer
	if err := json.Compact(&out, payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return json.RawMessage(out.Bytes()), nil
}

// Get returns one event.
func (o *Outbox) Get(ctx context.Context, eventID string) (*models.LocalEvent, error) {
	return o.events.GetEvent(ctx, eventID)
}

// List returns events with the given status ordered by seq.
func (o *Outbox) List(ctx context.Context, status models.SyncStatus) ([]*models.LocalEvent, error) {
	return o.events.ListEvents(ctx, status)
}

// ListPending returns up to limit pending events that are due now, oldest first.
func (o *Outbox) ListPending(ctx context.Context, limit int) ([]*models.LocalEvent, error) {
	return o.events.ListPending(ctx, o.now(), limit)
}

// MarkSynced marks events as accepted by the server. Best effort per id.
func (o *Outbox) MarkSynced(ctx context.Context, ids []string) (*storage.BulkResult, error) {
	syncedAt := o.now().UTC()

	return o.events.UpdateEvents(ctx, ids, func(event *models.LocalEvent) error {
		if event.SyncStatus != models.SyncStatusPending {
			return fmt.Errorf("event is %s, not pending", event.SyncStatus)
		}
		event.SyncStatus = models.SyncStatusSynced
		event.SyncAttempts++
		event.SyncedAt = &syncedAt
		event.NextRetryAt = nil
		event.LastError = ""
		return nil
	})
}

// MarkFailed marks events as rejected by validation. Best effort per id.
func (o *Outbox) MarkFailed(ctx context.Context, ids []string, reason string) (*storage.BulkResult, error) {
	return o.events.UpdateEvents(ctx, ids, func(event *models.LocalEvent) error {
		if event.SyncStatus != models.SyncStatusPending {
			return fmt.Errorf("event is %s, not pending", event.SyncStatus)
		}
		event.SyncStatus = models.SyncStatusFailed
		event.SyncAttempts++
		event.NextRetryAt = nil
		event.LastError = reason
		return nil
	})
}

// RecordAttempt books a delivery attempt that got no usable reply.
// Events stay pending and are not retried before their backoff expires.
func (o *Outbox) RecordAttempt(ctx context.Context, ids []string, cause error) (*storage.BulkResult, error) {
	now := o.now().UTC()
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	return o.events.UpdateEvents(ctx, ids, func(event *models.LocalEvent) error {
		if event.SyncStatus != models.SyncStatusPending {
			return fmt.Errorf("event is %s, not pending", event.SyncStatus)
		}
		event.SyncAttempts++
		next := now.Add(o.Backoff(event.SyncAttempts))
		event.NextRetryAt = &next
		event.LastError = reason
		return nil
	})
}

// Backoff returns the delay before the next delivery after attempt attempts.
func (o *Outbox) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return o.cfg.BackoffBase
	}
	backoff := float64(o.cfg.BackoffBase) * math.Pow(o.cfg.BackoffMultiplier, float64(attempt-1))
	if backoff > float64(o.cfg.BackoffMax) {
		return o.cfg.BackoffMax
	}
	return time.Duration(backoff)
}

// Reconcile applies one server reply as a single step.
func (o *Outbox) Reconcile(ctx context.Context, rec *storage.Reconciliation) (*storage.BulkResult, error) {
	if rec.SyncedAt.IsZero() {
		rec.SyncedAt = o.now().UTC()
	}

	result, err := o.events.Reconcile(ctx, rec)
	if err != nil {
		return nil, err
	}

	for id, cause := range result.Failed {
		o.logger.Warn("Failed to reconcile event", "event_id", id, "error", cause)
	}

	return result, nil
}

// ResetFailedToPending re-queues every failed event with cleared retry bookkeeping.
func (o *Outbox) ResetFailedToPending(ctx context.Context) (int, error) {
	n, err := o.events.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}

	o.logger.Info("Failed events re-queued", "count", n)
	return n, nil
}

// Stats returns event counts per status and the number of open conflicts.
func (o *Outbox) Stats(ctx context.Context) (*Stats, error) {
	counts, err := o.events.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	open, err := o.conflicts.ListConflicts(ctx, models.ConflictStatusPending)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Pending:       counts[models.SyncStatusPending],
		Failed:        counts[models.SyncStatusFailed],
		Synced:        counts[models.SyncStatusSynced],
		Discarded:     counts[models.SyncStatusDiscarded],
		OpenConflicts: len(open),
		Corrupt:       counts[storage.StatusCorrupt],
	}, nil
}

// archiveBatch bounds the number of events shipped in one archive object.
const archiveBatch = 500

// ArchiveSynced ships synced events acknowledged more than retention ago to
// the archiver and drops them from the local store. Their ids stay reserved.
func (o *Outbox) ArchiveSynced(ctx context.Context, retention time.Duration) (int, error) {
	if o.archiver == nil {
		return 0, ErrArchiveDisabled
	}

	cutoff := o.now().Add(-retention)
	total := 0

	for {
		events, err := o.events.ListSyncedBefore(ctx, cutoff, archiveBatch)
		if err != nil {
			return total, err
		}
		if len(events) == 0 {
			return total, nil
		}

		if err := o.archiver.Archive(ctx, events); err != nil {
			return total, fmt.Errorf("failed to archive events: %w", err)
		}

		ids := make([]string, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.EventID)
		}
		if err := o.events.RemoveArchived(ctx, ids); err != nil {
			return total, fmt.Errorf("failed to remove archived events: %w", err)
		}

		total += len(events)
		o.logger.Info("Synced events archived", "count", len(events))

		if len(events) < archiveBatch {
			return total, nil
		}
	}
}
