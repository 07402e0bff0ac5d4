package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
)

func TestClock_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.LoadClock(ctx)
	assert.ErrorIs(t, err, crdt.ErrClockNotFound)

	state := &models.ClockState{
		DeviceID: "device-1",
		Clock:    models.VectorClock{"device-1": 3, "device-2": 5},
		LastSeq:  3,
	}
	require.NoError(t, store.SaveClock(ctx, state))

	got, err := store.LoadClock(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestClock_Corrupted(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketClock).Put(clockKey, []byte("{not json"))
	})
	require.NoError(t, err)

	_, err = store.LoadClock(ctx)
	assert.ErrorIs(t, err, crdt.ErrClockCorrupted)
}

func TestClock_ManagerRecoversSeqFromOutbox(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	appendEvents(t, store, createTestEvent("e1", 5, testNow()))
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketClock).Put(clockKey, []byte("garbage"))
	})
	require.NoError(t, err)

	manager, err := crdt.NewClockManager(ctx, "device-1", store, testLogger())
	require.NoError(t, err)
	assert.True(t, manager.ResyncRequired())
	assert.Equal(t, int64(5), manager.LastSeq())

	stamp, err := manager.Tick(func(s crdt.Stamp) error {
		e := createTestEvent("e2", s.Seq, testNow())
		e.VectorClock = s.Clock
		return store.AppendEvent(ctx, e, s.State)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), stamp.Seq)

	state, err := store.LoadClock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), state.LastSeq)
	assert.Equal(t, int64(1), state.Clock["device-1"])
}
