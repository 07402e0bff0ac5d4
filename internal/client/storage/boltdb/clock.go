package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
)

var clockKey = []byte("state")

func putClock(tx *bbolt.Tx, state *models.ClockState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal clock: %w", err)
	}

	if err := tx.Bucket(bucketClock).Put(clockKey, data); err != nil {
		return fmt.Errorf("failed to save clock: %w", err)
	}
	return nil
}

// LoadClock returns the persisted vector clock state
func (s *Storage) LoadClock(ctx context.Context) (*models.ClockState, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var state *models.ClockState

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketClock).Get(clockKey)
		if data == nil {
			return crdt.ErrClockNotFound
		}

		state = &models.ClockState{}
		if err := json.Unmarshal(data, state); err != nil {
			return fmt.Errorf("%w: %v", crdt.ErrClockCorrupted, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

// SaveClock stores the vector clock state
func (s *Storage) SaveClock(ctx context.Context, state *models.ClockState) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return putClock(tx, state)
	})
}
