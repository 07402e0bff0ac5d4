package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/server/storage"
)

func testConflict(id string) *storage.Conflict {
	return &storage.Conflict{
		CreatedAt:            time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ID:                   id,
		StoreID:              "store-1",
		EventID:              "event-" + id,
		DeviceID:             "device-a",
		EntityType:           models.EntityCustomer,
		EntityID:             "c1",
		Reason:               "concurrent update of customer/c1",
		ConflictingWith:      []string{"event-x", "event-y"},
		RequiresManualReview: true,
	}
}

func TestConflictStorage_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	stored, created, err := s.CreateConflict(ctx, testConflict("conflict-1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.ConflictStatusPending, stored.Status)
	assert.Equal(t, []string{"event-x", "event-y"}, stored.ConflictingWith)
	assert.True(t, stored.RequiresManualReview)
	assert.Nil(t, stored.ResolvedAt)

	other := testConflict("conflict-1")
	other.Reason = "changed"
	stored, created, err = s.CreateConflict(ctx, other)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "concurrent update of customer/c1", stored.Reason)
}

func TestConflictStorage_Resolve(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, _, err := s.CreateConflict(ctx, testConflict("conflict-1"))
	require.NoError(t, err)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	resolved, err := s.ResolveConflict(ctx, "store-1", "conflict-1", models.ResolutionTakeTheirs, at)
	require.NoError(t, err)
	assert.Equal(t, models.ConflictStatusResolved, resolved.Status)
	assert.Equal(t, models.ResolutionTakeTheirs, resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, at.Equal(*resolved.ResolvedAt))

	// повторное разрешение не меняет стратегию
	again, err := s.ResolveConflict(ctx, "store-1", "conflict-1", models.ResolutionKeepMine, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionTakeTheirs, again.Resolution)
	assert.True(t, at.Equal(*again.ResolvedAt))

	_, err = s.ResolveConflict(ctx, "store-2", "conflict-1", models.ResolutionKeepMine, at)
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestConflictStorage_List(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	for _, id := range []string{"conflict-1", "conflict-2"} {
		_, _, err := s.CreateConflict(ctx, testConflict(id))
		require.NoError(t, err)
	}
	_, err := s.ResolveConflict(ctx, "store-1", "conflict-2", models.ResolutionMerge, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		status models.ConflictStatus
		want   []string
	}{
		{name: "all", status: "", want: []string{"conflict-1", "conflict-2"}},
		{name: "pending", status: models.ConflictStatusPending, want: []string{"conflict-1"}},
		{name: "resolved", status: models.ConflictStatusResolved, want: []string{"conflict-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListConflicts(ctx, "store-1", tt.status)
			require.NoError(t, err)

			ids := make([]string, 0, len(list))
			for _, c := range list {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
