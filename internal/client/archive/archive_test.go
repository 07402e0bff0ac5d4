package archive

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/posync/internal/crypto"
	"github.com/iudanet/posync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memoryStore returns an ObjectStoreMock backed by a map.
func memoryStore() (*ObjectStoreMock, map[string][]byte) {
	objects := make(map[string][]byte)
	var mu sync.Mutex

	return &ObjectStoreMock{
		PutFunc: func(ctx context.Context, key string, body []byte) error {
			mu.Lock()
			defer mu.Unlock()
			objects[key] = append([]byte(nil), body...)
			return nil
		},
		GetFunc: func(ctx context.Context, key string) ([]byte, error) {
			mu.Lock()
			defer mu.Unlock()
			body, ok := objects[key]
			if !ok {
				return nil, ErrObjectNotFound
			}
			return body, nil
		},
		ListFunc: func(ctx context.Context, prefix string) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			var keys []string
			for k := range objects {
				if strings.HasPrefix(k, prefix) {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			return keys, nil
		},
	}, objects
}

func syncedEvents(seqs ...int64) []*models.LocalEvent {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	events := make([]*models.LocalEvent, 0, len(seqs))
	for _, seq := range seqs {
		events = append(events, &models.LocalEvent{
			CreatedAt:   created,
			VectorClock: models.VectorClock{"device-1": seq},
			EventID:     "evt-" + string(rune('a'+seq)),
			StoreID:     "store-1",
			DeviceID:    "device-1",
			Type:        "ProductCreated",
			EntityType:  "product",
			EntityID:    "p1",
			SyncStatus:  models.SyncStatusSynced,
			Payload:     json.RawMessage(`{"name":"Harina PAN","price_usd":1.5}`),
			Seq:         seq,
		})
	}
	return events
}

func TestArchiver_ArchiveAndRestore(t *testing.T) {
	ctx := context.Background()
	store, objects := memoryStore()

	a, err := New(store, "store-1", "device-1", nil, testLogger())
	require.NoError(t, err)
	a.WithClock(func() time.Time { return time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC) })

	events := syncedEvents(3, 1, 2)
	require.NoError(t, a.Archive(ctx, events))

	require.Len(t, objects, 1)
	key := "store-1/device-1/2026/03/000000000001-000000000003.json.sz"
	assert.Contains(t, objects, key)

	// Сжатые данные не содержат открытого JSON
	assert.NotContains(t, string(objects[key]), `"event_id"`)

	keys, err := a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	batch, err := a.Restore(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "store-1", batch.StoreID)
	assert.Equal(t, "device-1", batch.DeviceID)
	assert.Equal(t, int64(1), batch.FirstSeq)
	assert.Equal(t, int64(3), batch.LastSeq)
	require.Len(t, batch.Events, 3)
	assert.Equal(t, events[0].EventID, batch.Events[0].EventID)
	assert.JSONEq(t, string(events[0].Payload), string(batch.Events[0].Payload))
}

func TestArchiver_SameBatchOverwrites(t *testing.T) {
	ctx := context.Background()
	store, objects := memoryStore()

	a, err := New(store, "store-1", "device-1", nil, testLogger())
	require.NoError(t, err)

	require.NoError(t, a.Archive(ctx, syncedEvents(1, 2)))
	require.NoError(t, a.Archive(ctx, syncedEvents(1, 2)))

	assert.Len(t, objects, 1)
	assert.Len(t, store.PutCalls(), 2)
}

func TestArchiver_Encrypted(t *testing.T) {
	ctx := context.Background()
	store, objects := memoryStore()

	key, err := crypto.DeriveArchiveKey("correct horse", "store-1")
	require.NoError(t, err)

	a, err := New(store, "store-1", "device-1", key, testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Archive(ctx, syncedEvents(5)))

	var objectKey string
	for k := range objects {
		objectKey = k
	}
	assert.True(t, strings.HasSuffix(objectKey, ".json.sz.enc"))

	batch, err := a.Restore(ctx, objectKey)
	require.NoError(t, err)
	assert.Equal(t, int64(5), batch.FirstSeq)

	t.Run("wrong key", func(t *testing.T) {
		other, err := crypto.DeriveArchiveKey("wrong", "store-1")
		require.NoError(t, err)
		b, err := New(store, "store-1", "device-1", other, testLogger())
		require.NoError(t, err)

		_, err = b.Restore(ctx, objectKey)
		assert.Error(t, err)
	})

	t.Run("no key", func(t *testing.T) {
		b, err := New(store, "store-1", "device-1", nil, testLogger())
		require.NoError(t, err)

		_, err = b.Restore(ctx, objectKey)
		assert.ErrorContains(t, err, "no key is configured")
	})
}

func TestArchiver_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(&ObjectStoreMock{}, "store-1", "device-1", []byte("short"), testLogger())
	assert.Error(t, err)

	store := &ObjectStoreMock{
		PutFunc: func(ctx context.Context, key string, body []byte) error {
			return errors.New("bucket unavailable")
		},
		GetFunc: func(ctx context.Context, key string) ([]byte, error) {
			return []byte("not snappy"), nil
		},
	}
	a, err := New(store, "store-1", "device-1", nil, testLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, a.Archive(ctx, nil), ErrEmptyBatch)
	assert.ErrorContains(t, a.Archive(ctx, syncedEvents(1)), "bucket unavailable")

	_, err = a.Restore(ctx, "store-1/device-1/x.json.sz")
	assert.ErrorContains(t, err, "failed to decompress")
}
