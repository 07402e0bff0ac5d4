package storage

import (
	"context"
	"time"

	"github.com/iudanet/posync/internal/models"
)

// Conflict серверная запись конфликта
type Conflict struct {
	CreatedAt            time.Time
	ResolvedAt           *time.Time
	ID                   string
	StoreID              string
	EventID              string
	DeviceID             string
	EntityType           string
	EntityID             string
	Reason               string
	Status               models.ConflictStatus
	Resolution           models.Resolution
	ConflictingWith      []string
	RequiresManualReview bool
}

// ConflictStorage defines persistence of conflicts detected on push
type ConflictStorage interface {
	// CreateConflict stores a new pending conflict. A conflict with the same id
	// is kept as is and returned; created reports whether the row is new.
	CreateConflict(ctx context.Context, conflict *Conflict) (stored *Conflict, created bool, err error)

	// GetConflict returns a conflict of the store.
	// Returns ErrConflictNotFound for unknown ids and ids of other stores.
	GetConflict(ctx context.Context, storeID, id string) (*Conflict, error)

	// ResolveConflict marks a pending conflict resolved. An already resolved
	// conflict is returned unchanged.
	ResolveConflict(ctx context.Context, storeID, id string, resolution models.Resolution, at time.Time) (*Conflict, error)

	// ListConflicts returns conflicts of the store; empty status lists all
	ListConflicts(ctx context.Context, storeID string, status models.ConflictStatus) ([]*Conflict, error)
}
