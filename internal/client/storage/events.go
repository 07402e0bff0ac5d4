package storage

import (
	"context"
	"time"

	"github.com/iudanet/posync/internal/models"
)

// StatusCorrupt is the CountByStatus key of event records that cannot be decoded.
const StatusCorrupt models.SyncStatus = "corrupt"

// EventStorage defines the persistent outbox of local events.
// Implementations must be safe for concurrent use by the scheduler and by
// foreground readers.
type EventStorage interface {
	// AppendEvent stores a new event together with the clock state produced
	// by the tick that stamped it, in one transaction.
	// Returns ErrDuplicateEvent if the event_id was ever used before.
	AppendEvent(ctx context.Context, event *models.LocalEvent, clock *models.ClockState) error

	// GetEvent returns ErrEventNotFound if the event doesn't exist
	GetEvent(ctx context.Context, eventID string) (*models.LocalEvent, error)

	// ListPending returns pending events that are due at now and not blocked
	// by an open conflict, ordered by created_at then seq.
	// Undecodable records are skipped here and in ListEvents and ResetFailed;
	// CountByStatus reports them under StatusCorrupt.
	ListPending(ctx context.Context, now time.Time, limit int) ([]*models.LocalEvent, error)

	// ListEvents returns events with the given status ordered by seq.
	// Empty status lists everything.
	ListEvents(ctx context.Context, status models.SyncStatus) ([]*models.LocalEvent, error)

	// UpdateEvents applies fn to each event in one transaction. A failing id is
	// recorded in the result and does not stop the others.
	UpdateEvents(ctx context.Context, ids []string, fn func(event *models.LocalEvent) error) (*BulkResult, error)

	// Reconcile applies one server reply atomically.
	Reconcile(ctx context.Context, rec *Reconciliation) (*BulkResult, error)

	// ResetFailed moves every failed event back to pending and returns how many were reset.
	ResetFailed(ctx context.Context) (int, error)

	// CountByStatus returns the number of events per lifecycle status.
	CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error)

	// ListSyncedBefore returns synced events acknowledged before the cutoff.
	ListSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.LocalEvent, error)

	// RemoveArchived drops archived events from the hot store. Their ids stay reserved.
	RemoveArchived(ctx context.Context, ids []string) error

	// MaxSeq returns the highest seq used by the device, 0 when the outbox is empty.
	MaxSeq(ctx context.Context, deviceID string) (int64, error)
}

// BulkResult collects per-id failures of a best-effort bulk operation.
type BulkResult struct {
	Failed  map[string]error // Failed id события -> причина
	Updated int
}

// NewBulkResult creates an empty result
func NewBulkResult() *BulkResult {
	return &BulkResult{Failed: make(map[string]error)}
}

// OK reports whether every id was updated.
func (r *BulkResult) OK() bool {
	return len(r.Failed) == 0
}

// SyncedEvent is one accepted event of a server reply.
type SyncedEvent struct {
	EventID   string
	ServerSeq int64
}

// Reconciliation is the outcome of one push exchange, applied as a single step.
type Reconciliation struct {
	SyncedAt  time.Time
	Failed    map[string]string // event_id -> причина отказа валидации
	Synced    []SyncedEvent
	Conflicts []*models.LocalConflict // event_id внутри конфликта указывает на локальное событие
}
