package conflict

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/client/cache"
	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/client/projection"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/client/storage/boltdb"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var resolvedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store   *boltdb.Storage
	outbox  *outbox.Outbox
	engine  *projection.Engine
	remote  *RemoteMock
	manager *Manager
}

func newTestStore(t *testing.T, name string) *boltdb.Storage {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	store := newTestStore(t, "device-b.db")

	clock, err := crdt.NewClockManager(ctx, "device-b", store, logger)
	require.NoError(t, err)

	ob := outbox.New(store, store, clock, "store-1", outbox.DefaultConfig(), logger)
	engine := projection.New(store, cache.New(cache.DefaultConfig(), nil, logger), logger)
	remote := &RemoteMock{
		AcknowledgeResolutionFunc: func(ctx context.Context, conflictID string, resolution models.Resolution) error {
			return nil
		},
		EntityHistoryFunc: func(ctx context.Context, entityType, entityID string) ([]*models.LocalEvent, error) {
			return deviceAHistory(), nil
		},
	}

	manager := New(store, ob, engine, remote, logger).WithClock(func() time.Time { return resolvedAt })

	return &fixture{
		store:   store,
		outbox:  ob,
		engine:  engine,
		remote:  remote,
		manager: manager,
	}
}

func remoteEvent(id, eventType, payload string, seq int64) *models.LocalEvent {
	return &models.LocalEvent{
		EventID:     id,
		StoreID:     "store-1",
		DeviceID:    "device-a",
		Seq:         seq,
		ServerSeq:   seq,
		Type:        eventType,
		EntityType:  models.EntityCustomer,
		EntityID:    "c1",
		Payload:     json.RawMessage(payload),
		VectorClock: models.VectorClock{"device-a": seq},
		SyncStatus:  models.SyncStatusSynced,
		CreatedAt:   time.Date(2026, 2, 28, 10, int(seq), 0, 0, time.UTC),
	}
}

func customerCreatedByA() *models.LocalEvent {
	return remoteEvent("a-created", models.EventCustomerCreated,
		`{"customer_id":"c1","name":"Ana","document_id":"V-123"}`, 1)
}

// deviceAHistory is what the server accepted for c1: A created the customer
// and then renamed it.
func deviceAHistory() []*models.LocalEvent {
	return []*models.LocalEvent{
		customerCreatedByA(),
		remoteEvent("a-update", models.EventCustomerUpdated,
			`{"customer_id":"c1","patch":{"name":"Ana Maria"}}`, 2),
	}
}

// seedConflict puts B into the state after a push rejected its edit of c1.
func (f *fixture) seedConflict(t *testing.T, patch string) *models.LocalEvent {
	t.Helper()
	ctx := context.Background()

	// B уже получил создание клиента от A
	_, err := f.engine.ApplyEvent(ctx, customerCreatedByA())
	require.NoError(t, err)

	event, err := f.outbox.Append(ctx, models.NewEvent{
		Type:       models.EventCustomerUpdated,
		EntityType: models.EntityCustomer,
		EntityID:   "c1",
		Payload:    json.RawMessage(`{"customer_id":"c1","patch":` + patch + `}`),
	})
	require.NoError(t, err)

	_, err = f.engine.ApplyEvent(ctx, event)
	require.NoError(t, err)

	result, err := f.outbox.Reconcile(ctx, &storage.Reconciliation{
		Conflicts: []*models.LocalConflict{{
			ID:              "conflict-1",
			EventID:         event.EventID,
			Reason:          "concurrent update of customer c1",
			EntityType:      models.EntityCustomer,
			EntityID:        "c1",
			Status:          models.ConflictStatusPending,
			ConflictingWith: []string{"a-update"},
			CreatedAt:       resolvedAt.Add(-time.Hour),
		}},
	})
	require.NoError(t, err)
	require.True(t, result.OK())

	return event
}

func TestResolve_TakeTheirs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local := f.seedConflict(t, `{"name":"Ana B"}`)

	conflicts, err := f.manager.List(ctx, models.ConflictStatusPending)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, local.EventID, conflicts[0].EventID)

	resolved, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionTakeTheirs)
	require.NoError(t, err)
	assert.Equal(t, models.ConflictStatusResolved, resolved.Status)
	assert.Equal(t, models.ResolutionTakeTheirs, resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, resolvedAt, *resolved.ResolvedAt)

	require.Len(t, f.remote.EntityHistoryCalls(), 1)
	assert.Equal(t, "c1", f.remote.EntityHistoryCalls()[0].EntityID)
	require.Len(t, f.remote.AcknowledgeResolutionCalls(), 1)
	assert.Equal(t, models.ResolutionTakeTheirs, f.remote.AcknowledgeResolutionCalls()[0].Resolution)

	// Проекция B совпадает с версией, принятой от A
	reference := projection.New(newTestStore(t, "reference.db"), nil, testLogger())
	require.True(t, reference.ApplyEvents(ctx, deviceAHistory()).OK())
	want, err := reference.Customer(ctx, "c1")
	require.NoError(t, err)

	got, err := f.engine.Customer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "Ana Maria", got.Name)

	event, err := f.outbox.Get(ctx, local.EventID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusDiscarded, event.SyncStatus)
	assert.False(t, event.IsBlocked())

	pending, err := f.outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	count, err := f.manager.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestResolve_TakeTheirsKeepsOtherPendingEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := remoteEvent("a-product", models.EventProductCreated, `{"product_id":"p1","name":"Harina PAN","price_usd":1}`, 1)
	created.EntityType, created.EntityID = models.EntityProduct, "p1"
	renamed := remoteEvent("a-rename", models.EventProductUpdated, `{"product_id":"p1","patch":{"name":"Harina P.A.N."}}`, 2)
	renamed.EntityType, renamed.EntityID = models.EntityProduct, "p1"
	f.remote.EntityHistoryFunc = func(ctx context.Context, entityType, entityID string) ([]*models.LocalEvent, error) {
		return []*models.LocalEvent{created, renamed}, nil
	}

	_, err := f.engine.ApplyEvent(ctx, created)
	require.NoError(t, err)

	appendLocal := func(eventType, payload string) *models.LocalEvent {
		event, err := f.outbox.Append(ctx, models.NewEvent{
			Type:       eventType,
			EntityType: models.EntityProduct,
			EntityID:   "p1",
			Payload:    json.RawMessage(payload),
		})
		require.NoError(t, err)
		_, err = f.engine.ApplyEvent(ctx, event)
		require.NoError(t, err)
		return event
	}

	// Продажа на B еще не отправлена, переименование B конфликтует с A
	sale := appendLocal(models.EventStockDeltaApplied, `{"product_id":"p1","qty_delta":-3}`)
	rename := appendLocal(models.EventProductUpdated, `{"product_id":"p1","patch":{"name":"Harina B"}}`)

	result, err := f.outbox.Reconcile(ctx, &storage.Reconciliation{
		Conflicts: []*models.LocalConflict{{
			ID:         "conflict-p1",
			EventID:    rename.EventID,
			Reason:     "concurrent update of product p1",
			EntityType: models.EntityProduct,
			EntityID:   "p1",
			Status:     models.ConflictStatusPending,
			CreatedAt:  resolvedAt.Add(-time.Hour),
		}},
	})
	require.NoError(t, err)
	require.True(t, result.OK())

	_, err = f.manager.Resolve(ctx, "conflict-p1", models.ResolutionTakeTheirs)
	require.NoError(t, err)

	product, err := f.engine.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Harina P.A.N.", product.Name)

	level, err := f.engine.Stock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, -3.0, level.Quantity)

	pending, err := f.outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, sale.EventID, pending[0].EventID)

	// После синхронизации продажа возвращается с сервера и не применяется повторно
	applied, err := f.engine.ApplyEvent(ctx, sale)
	require.NoError(t, err)
	assert.False(t, applied)

	level, err = f.engine.Stock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, -3.0, level.Quantity)
}

func TestResolve_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedConflict(t, `{"name":"Ana B"}`)

	first, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionTakeTheirs)
	require.NoError(t, err)

	// Часы сдвинулись, но повторный вызов не меняет запись
	f.manager.WithClock(func() time.Time { return resolvedAt.Add(time.Hour) })

	second, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionKeepMine)
	require.NoError(t, err)
	assert.Equal(t, first.Resolution, second.Resolution)
	assert.Equal(t, first.ResolvedAt, second.ResolvedAt)

	stored, err := f.manager.Get(ctx, "conflict-1")
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionTakeTheirs, stored.Resolution)
	assert.Equal(t, resolvedAt, *stored.ResolvedAt)

	assert.Len(t, f.remote.AcknowledgeResolutionCalls(), 1)
}

func TestResolve_ConcurrentCallsResolveOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedConflict(t, `{"name":"Ana B"}`)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.manager.Resolve(ctx, "conflict-1", models.ResolutionTakeTheirs)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, f.remote.AcknowledgeResolutionCalls(), 1)
}

func TestResolve_KeepMine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local := f.seedConflict(t, `{"name":"Ana B"}`)

	var notified *models.LocalConflict
	f.manager.OnResolved(func(c *models.LocalConflict) { notified = c })

	resolved, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionKeepMine)
	require.NoError(t, err)
	assert.Equal(t, models.ResolutionKeepMine, resolved.Resolution)
	require.NotNil(t, notified)
	assert.Equal(t, "conflict-1", notified.ID)

	// Сервер не вызывается: override уйдёт в следующем раунде
	assert.Empty(t, f.remote.EntityHistoryCalls())
	assert.Empty(t, f.remote.AcknowledgeResolutionCalls())

	event, err := f.outbox.Get(ctx, local.EventID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPending, event.SyncStatus)
	assert.False(t, event.IsBlocked())
	assert.True(t, event.Override)
	assert.Equal(t, "conflict-1", event.ResolvesConflict)
	assert.Equal(t, 0, event.SyncAttempts)
	assert.Empty(t, event.LastError)

	pending, err := f.outbox.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, local.EventID, pending[0].EventID)

	// Локальная проекция сохраняет правку B
	customer, err := f.engine.Customer(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", customer.Name)
}

func TestResolve_Merge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local := f.seedConflict(t, `{"phone":"+58 412 555"}`)

	t.Run("unsupported without merger", func(t *testing.T) {
		_, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionMerge)
		assert.ErrorIs(t, err, ErrMergeUnsupported)

		stored, err := f.manager.Get(ctx, "conflict-1")
		require.NoError(t, err)
		assert.False(t, stored.IsResolved())
		assert.Empty(t, f.remote.AcknowledgeResolutionCalls())
	})

	t.Run("override event appended", func(t *testing.T) {
		f.manager.RegisterMerger(models.EventCustomerUpdated, MergerFunc(
			func(ctx context.Context, mine *models.LocalEvent, theirs []*models.LocalEvent) (json.RawMessage, error) {
				assert.Equal(t, local.EventID, mine.EventID)
				require.Len(t, theirs, 2)
				return json.RawMessage(`{"customer_id":"c1","patch":{"name":"Ana Maria","phone":"+58 412 555"}}`), nil
			}))

		resolved, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionMerge)
		require.NoError(t, err)
		assert.Equal(t, models.ResolutionMerge, resolved.Resolution)
		require.Len(t, f.remote.AcknowledgeResolutionCalls(), 1)

		original, err := f.outbox.Get(ctx, local.EventID)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusDiscarded, original.SyncStatus)

		pending, err := f.outbox.ListPending(ctx, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		merged := pending[0]
		assert.Equal(t, mergeEventID("conflict-1"), merged.EventID)
		assert.True(t, merged.Override)
		assert.Equal(t, "conflict-1", merged.ResolvesConflict)
		assert.Equal(t, "c1", merged.EntityID)
		assert.Greater(t, merged.Seq, local.Seq)

		customer, err := f.engine.Customer(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", customer.Name)
		assert.Equal(t, "+58 412 555", customer.Phone)
	})
}

func TestResolve_MergerError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedConflict(t, `{"name":"Ana B"}`)

	f.manager.RegisterMerger(models.EventCustomerUpdated, MergerFunc(
		func(ctx context.Context, mine *models.LocalEvent, theirs []*models.LocalEvent) (json.RawMessage, error) {
			return nil, errors.New("fields overlap")
		}))

	_, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionMerge)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fields overlap")
	assert.Empty(t, f.remote.AcknowledgeResolutionCalls())

	count, err := f.manager.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolve_InvalidResolution(t *testing.T) {
	f := newFixture(t)
	f.seedConflict(t, `{"name":"Ana B"}`)

	_, err := f.manager.Resolve(context.Background(), "conflict-1", models.Resolution("both"))
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Resolve(context.Background(), "missing", models.ResolutionKeepMine)
	assert.ErrorIs(t, err, storage.ErrConflictNotFound)
}

func TestResolve_RemoteFailureKeepsConflictOpen(t *testing.T) {
	tests := []struct {
		name    string
		history error
		ack     error
	}{
		{name: "history unavailable", history: errors.New("connection refused")},
		{name: "acknowledge rejected", ack: errors.New("server error (503)")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			local := f.seedConflict(t, `{"name":"Ana B"}`)

			f.remote.EntityHistoryFunc = func(ctx context.Context, entityType, entityID string) ([]*models.LocalEvent, error) {
				if tt.history != nil {
					return nil, tt.history
				}
				return deviceAHistory(), nil
			}
			f.remote.AcknowledgeResolutionFunc = func(ctx context.Context, conflictID string, resolution models.Resolution) error {
				return tt.ack
			}

			_, err := f.manager.Resolve(ctx, "conflict-1", models.ResolutionTakeTheirs)
			require.Error(t, err)

			stored, err := f.manager.Get(ctx, "conflict-1")
			require.NoError(t, err)
			assert.Equal(t, models.ConflictStatusPending, stored.Status)
			assert.Nil(t, stored.ResolvedAt)

			event, err := f.outbox.Get(ctx, local.EventID)
			require.NoError(t, err)
			assert.Equal(t, models.SyncStatusPending, event.SyncStatus)
			assert.Equal(t, "conflict-1", event.ConflictID)

			// Проекция не перестраивалась
			customer, err := f.engine.Customer(ctx, "c1")
			require.NoError(t, err)
			assert.Equal(t, "Ana B", customer.Name)
		})
	}
}
