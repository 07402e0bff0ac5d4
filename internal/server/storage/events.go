package storage

import (
	"context"

	"github.com/iudanet/posync/internal/models"
)

// EventStorage defines the accepted event log of the server
type EventStorage interface {
	// AppendEvent stores an accepted event, assigns the next server sequence
	// and folds the event clock into the store clock in one transaction.
	// ServerSeq of event is set on success.
	AppendEvent(ctx context.Context, event *models.LocalEvent) error

	// GetEvent returns an accepted event by id.
	// Returns ErrEventNotFound if the event was never accepted.
	GetEvent(ctx context.Context, eventID string) (*models.LocalEvent, error)

	// ListSince returns events of the store with server sequence > since,
	// ordered by sequence. limit <= 0 means no limit.
	ListSince(ctx context.Context, storeID string, since int64, limit int) ([]*models.LocalEvent, error)

	// EntityHistory returns all accepted events of one entity ordered by sequence
	EntityHistory(ctx context.Context, storeID, entityType, entityID string) ([]*models.LocalEvent, error)

	// StoreClock returns the per-device maximum of accepted clocks
	StoreClock(ctx context.Context, storeID string) (models.VectorClock, error)

	// LastSeq returns the highest server sequence of the store, 0 when empty
	LastSeq(ctx context.Context, storeID string) (int64, error)
}
