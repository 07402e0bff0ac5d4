package storage

import (
	"context"

	"github.com/iudanet/posync/internal/models"
)

// ConflictStorage stores conflicts reported by the server.
// Records are never deleted.
type ConflictStorage interface {
	// GetConflict returns ErrConflictNotFound if the conflict doesn't exist
	GetConflict(ctx context.Context, id string) (*models.LocalConflict, error)

	// ListConflicts returns conflicts with the given status ordered by created_at.
	// Empty status lists everything.
	ListConflicts(ctx context.Context, status models.ConflictStatus) ([]*models.LocalConflict, error)

	// ResolveConflict runs fn on the conflict and the implicated local event
	// inside one transaction and persists both. fn is not called and the
	// stored conflict is returned unchanged if it is already resolved.
	ResolveConflict(ctx context.Context, id string, fn func(conflict *models.LocalConflict, event *models.LocalEvent) error) (*models.LocalConflict, error)
}
