package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

func seedConflict(t *testing.T, store *Storage) {
	t.Helper()

	now := testNow()
	appendEvents(t, store, createTestEvent("e1", 1, now))

	_, err := store.Reconcile(context.Background(), &storage.Reconciliation{
		SyncedAt: now,
		Conflicts: []*models.LocalConflict{{
			ID:        "c1",
			EventID:   "e1",
			Reason:    "concurrent edit",
			Status:    models.ConflictStatusPending,
			CreatedAt: now,
		}},
	})
	require.NoError(t, err)
}

func TestConflicts_GetAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.GetConflict(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)

	seedConflict(t, store)

	conflict, err := store.GetConflict(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "e1", conflict.EventID)

	pending, err := store.ListConflicts(ctx, models.ConflictStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	resolved, err := store.ListConflicts(ctx, models.ConflictStatusResolved)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveConflict_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	seedConflict(t, store)

	resolvedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	calls := 0

	resolve := func(c *models.LocalConflict, e *models.LocalEvent) error {
		calls++
		c.Status = models.ConflictStatusResolved
		c.Resolution = models.ResolutionKeepMine
		at := resolvedAt.Add(time.Duration(calls) * time.Hour)
		c.ResolvedAt = &at
		e.ConflictID = ""
		e.Override = true
		return nil
	}

	first, err := store.ResolveConflict(ctx, "c1", resolve)
	require.NoError(t, err)
	assert.True(t, first.IsResolved())

	second, err := store.ResolveConflict(ctx, "c1", resolve)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Resolution, second.Resolution)
	assert.True(t, first.ResolvedAt.Equal(*second.ResolvedAt))

	event, err := store.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, event.IsBlocked())
	assert.True(t, event.Override)

	// Событие снова доступно для отправки
	pending, err := store.ListPending(ctx, testNow().Add(time.Second), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestResolveConflict_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.ResolveConflict(context.Background(), "nope", func(*models.LocalConflict, *models.LocalEvent) error {
		return nil
	})
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}
