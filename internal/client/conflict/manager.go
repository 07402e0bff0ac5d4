// Package conflict lets the operator settle conflicts reported by the server.
package conflict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/client/projection"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

var (
	// ErrMergeUnsupported is returned when no merger is registered for the event type.
	ErrMergeUnsupported = errors.New("merge is not supported for this event type")
	// ErrInvalidResolution is returned for an unknown strategy.
	ErrInvalidResolution = errors.New("invalid resolution strategy")
	// ErrEventNotPending is returned when the local event already left the pending state.
	ErrEventNotPending = errors.New("conflicting event is no longer pending")
)

// Merger builds the payload of an override event from the local event and
// the server history of the entity.
type Merger interface {
	Merge(ctx context.Context, mine *models.LocalEvent, theirs []*models.LocalEvent) (json.RawMessage, error)
}

// MergerFunc adapts a function to Merger.
type MergerFunc func(ctx context.Context, mine *models.LocalEvent, theirs []*models.LocalEvent) (json.RawMessage, error)

func (f MergerFunc) Merge(ctx context.Context, mine *models.LocalEvent, theirs []*models.LocalEvent) (json.RawMessage, error) {
	return f(ctx, mine, theirs)
}

//go:generate moq -out remote_mock.go . Remote

// Remote is the part of the server the manager needs.
type Remote interface {
	// EntityHistory returns the accepted events of an entity
	EntityHistory(ctx context.Context, entityType, entityID string) ([]*models.LocalEvent, error)
	// AcknowledgeResolution tells the server the conflict is settled
	AcknowledgeResolution(ctx context.Context, conflictID string, resolution models.Resolution) error
}

// Manager resolves conflicts. Resolutions are serialised.
type Manager struct {
	conflicts  storage.ConflictStorage
	outbox     *outbox.Outbox
	projection *projection.Engine
	remote     Remote
	mergers    map[string]Merger
	onResolved func(*models.LocalConflict)
	logger     *slog.Logger
	now        func() time.Time
	mu         sync.Mutex
}

// New creates a conflict manager.
func New(conflicts storage.ConflictStorage, ob *outbox.Outbox, proj *projection.Engine, remote Remote, logger *slog.Logger) *Manager {
	return &Manager{
		conflicts:  conflicts,
		outbox:     ob,
		projection: proj,
		remote:     remote,
		mergers:    make(map[string]Merger),
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// OnResolved registers a callback run after every successful resolution,
// e.g. to trigger a sync round for a keep_mine override.
func (m *Manager) OnResolved(fn func(*models.LocalConflict)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onResolved = fn
}

// RegisterMerger enables the merge strategy for eventType.
func (m *Manager) RegisterMerger(eventType string, merger Merger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergers[eventType] = merger
}

// List returns conflicts with the given status; empty status lists all.
func (m *Manager) List(ctx context.Context, status models.ConflictStatus) ([]*models.LocalConflict, error) {
	return m.conflicts.ListConflicts(ctx, status)
}

// Get returns one conflict.
func (m *Manager) Get(ctx context.Context, id string) (*models.LocalConflict, error) {
	return m.conflicts.GetConflict(ctx, id)
}

// Count returns the number of unresolved conflicts.
func (m *Manager) Count(ctx context.Context) (int, error) {
	pending, err := m.conflicts.ListConflicts(ctx, models.ConflictStatusPending)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Resolve settles a conflict with the given strategy. Resolving an already
// resolved conflict returns the stored record unchanged.
func (m *Manager) Resolve(ctx context.Context, id string, resolution models.Resolution) (*models.LocalConflict, error) {
	if !resolution.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResolution, resolution)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conflict, err := m.conflicts.GetConflict(ctx, id)
	if err != nil {
		return nil, err
	}
	if conflict.IsResolved() {
		m.logger.Debug("Conflict already resolved", "conflict_id", id, "resolution", conflict.Resolution)
		return conflict, nil
	}

	event, err := m.outbox.Get(ctx, conflict.EventID)
	if err != nil && !errors.Is(err, storage.ErrEventNotFound) {
		return nil, fmt.Errorf("failed to load conflicting event: %w", err)
	}

	switch resolution {
	case models.ResolutionKeepMine:
		conflict, err = m.keepMine(ctx, conflict)
	case models.ResolutionTakeTheirs:
		conflict, err = m.takeTheirs(ctx, conflict, event)
	case models.ResolutionMerge:
		conflict, err = m.merge(ctx, conflict, event)
	}
	if err != nil {
		return nil, err
	}

	m.logger.Info("Conflict resolved",
		"conflict_id", conflict.ID,
		"event_id", conflict.EventID,
		"resolution", conflict.Resolution)

	if m.onResolved != nil {
		m.onResolved(conflict)
	}
	return conflict, nil
}

func (m *Manager) markResolved(conflict *models.LocalConflict, resolution models.Resolution) {
	resolvedAt := m.now().UTC()
	conflict.Status = models.ConflictStatusResolved
	conflict.Resolution = resolution
	conflict.ResolvedAt = &resolvedAt
}

// keepMine re-queues the local event as an override. The server closes the
// conflict when it accepts the override.
func (m *Manager) keepMine(ctx context.Context, conflict *models.LocalConflict) (*models.LocalConflict, error) {
	return m.conflicts.ResolveConflict(ctx, conflict.ID, func(c *models.LocalConflict, event *models.LocalEvent) error {
		if event == nil {
			return fmt.Errorf("%w: %s", storage.ErrEventNotFound, c.EventID)
		}
		if event.SyncStatus != models.SyncStatusPending {
			return fmt.Errorf("%w: %s is %s", ErrEventNotPending, event.EventID, event.SyncStatus)
		}

		event.ConflictID = ""
		event.Override = true
		event.ResolvesConflict = c.ID
		event.SyncAttempts = 0
		event.NextRetryAt = nil
		event.LastError = ""

		m.markResolved(c, models.ResolutionKeepMine)
		return nil
	})
}

func entityOf(conflict *models.LocalConflict, event *models.LocalEvent) (string, string) {
	if conflict.EntityType != "" && conflict.EntityID != "" {
		return conflict.EntityType, conflict.EntityID
	}
	if event != nil {
		return event.EntityType, event.EntityID
	}
	return "", ""
}

// discard closes the conflict and drops the local event from the outbox.
func (m *Manager) discard(ctx context.Context, conflict *models.LocalConflict, resolution models.Resolution) (*models.LocalConflict, error) {
	return m.conflicts.ResolveConflict(ctx, conflict.ID, func(c *models.LocalConflict, event *models.LocalEvent) error {
		if event != nil && event.SyncStatus == models.SyncStatusPending {
			event.SyncStatus = models.SyncStatusDiscarded
			event.ConflictID = ""
			event.NextRetryAt = nil
			event.LastError = "discarded by " + string(resolution)
		}

		m.markResolved(c, resolution)
		return nil
	})
}

// takeTheirs adopts the server version: the entity is rebuilt from the
// server history plus the other unsent local events on it, and the
// conflicting local event is discarded.
func (m *Manager) takeTheirs(ctx context.Context, conflict *models.LocalConflict, event *models.LocalEvent) (*models.LocalConflict, error) {
	entityType, entityID := entityOf(conflict, event)

	var history []*models.LocalEvent
	if entityType != "" {
		var err error
		history, err = m.remote.EntityHistory(ctx, entityType, entityID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch server version: %w", err)
		}
	}

	if err := m.remote.AcknowledgeResolution(ctx, conflict.ID, models.ResolutionTakeTheirs); err != nil {
		return nil, fmt.Errorf("failed to acknowledge resolution: %w", err)
	}

	if entityType != "" {
		pending, err := m.pendingOn(ctx, entityType, entityID, conflict.EventID)
		if err != nil {
			return nil, err
		}
		if err := m.projection.Rebuild(ctx, entityType, entityID, history, pending); err != nil {
			return nil, fmt.Errorf("failed to rebuild %s/%s: %w", entityType, entityID, err)
		}
	}

	return m.discard(ctx, conflict, models.ResolutionTakeTheirs)
}

// pendingOn returns the unsent local events on the entity except the one
// being discarded. Their effect must survive a rebuild from server history.
func (m *Manager) pendingOn(ctx context.Context, entityType, entityID, discardedID string) ([]*models.LocalEvent, error) {
	events, err := m.outbox.List(ctx, models.SyncStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}

	var pending []*models.LocalEvent
	for _, event := range events {
		if event.EventID != discardedID && projection.Touches(event, entityType, entityID) {
			pending = append(pending, event)
		}
	}
	return pending, nil
}

// mergeEventID is derived from the conflict so a retried merge reuses the id.
func mergeEventID(conflictID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("merge:"+conflictID)).String()
}

// merge asks the registered merger for a combined payload, appends it as an
// override event and discards the original.
func (m *Manager) merge(ctx context.Context, conflict *models.LocalConflict, event *models.LocalEvent) (*models.LocalConflict, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrEventNotFound, conflict.EventID)
	}
	if event.SyncStatus != models.SyncStatusPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrEventNotPending, event.EventID, event.SyncStatus)
	}

	merger, ok := m.mergers[event.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMergeUnsupported, event.Type)
	}

	entityType, entityID := entityOf(conflict, event)

	var theirs []*models.LocalEvent
	if entityType != "" {
		var err error
		theirs, err = m.remote.EntityHistory(ctx, entityType, entityID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch server version: %w", err)
		}
	}

	payload, err := merger.Merge(ctx, event, theirs)
	if err != nil {
		return nil, fmt.Errorf("merger failed: %w", err)
	}

	if err := m.remote.AcknowledgeResolution(ctx, conflict.ID, models.ResolutionMerge); err != nil {
		return nil, fmt.Errorf("failed to acknowledge resolution: %w", err)
	}

	merged, err := m.outbox.Append(ctx, models.NewEvent{
		EventID:          mergeEventID(conflict.ID),
		StoreID:          event.StoreID,
		Type:             event.Type,
		EntityType:       entityType,
		EntityID:         entityID,
		Payload:          payload,
		ResolvesConflict: conflict.ID,
		Override:         true,
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateEvent):
		m.logger.Debug("Merged event already appended", "conflict_id", conflict.ID)
	case err != nil:
		return nil, fmt.Errorf("failed to append merged event: %w", err)
	default:
		if _, err := m.projection.ApplyEvent(ctx, merged); err != nil {
			m.logger.Warn("Failed to project merged event", "event_id", merged.EventID, "error", err)
		}
	}

	return m.discard(ctx, conflict, models.ResolutionMerge)
}
