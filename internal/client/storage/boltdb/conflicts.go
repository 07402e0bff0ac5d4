package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

func getConflict(tx *bbolt.Tx, id string) (*models.LocalConflict, error) {
	data := tx.Bucket(bucketConflicts).Get([]byte(id))
	if data == nil {
		return nil, storage.ErrConflictNotFound
	}

	conflict := &models.LocalConflict{}
	if err := json.Unmarshal(data, conflict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conflict %s: %w", id, err)
	}
	return conflict, nil
}

func putConflict(tx *bbolt.Tx, conflict *models.LocalConflict) error {
	data, err := json.Marshal(conflict)
	if err != nil {
		return fmt.Errorf("failed to marshal conflict: %w", err)
	}

	if err := tx.Bucket(bucketConflicts).Put([]byte(conflict.ID), data); err != nil {
		return fmt.Errorf("failed to save conflict: %w", err)
	}
	return nil
}

// upsertConflict создает конфликт или обновляет описание открытого.
// Разрешённый конфликт не изменяется.
func upsertConflict(tx *bbolt.Tx, conflict *models.LocalConflict) (*models.LocalConflict, error) {
	existing, err := getConflict(tx, conflict.ID)
	switch {
	case errors.Is(err, storage.ErrConflictNotFound):
		if err := putConflict(tx, conflict); err != nil {
			return nil, err
		}
		return conflict, nil
	case err != nil:
		return nil, err
	}

	if existing.IsResolved() {
		return existing, nil
	}

	existing.Reason = conflict.Reason
	existing.ConflictingWith = conflict.ConflictingWith
	existing.RequiresManualReview = conflict.RequiresManualReview

	if err := putConflict(tx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetConflict retrieves a conflict by id
func (s *Storage) GetConflict(ctx context.Context, id string) (*models.LocalConflict, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var conflict *models.LocalConflict
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		conflict, err = getConflict(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return conflict, nil
}

// ListConflicts returns conflicts with the given status ordered by created_at
func (s *Storage) ListConflicts(ctx context.Context, status models.ConflictStatus) ([]*models.LocalConflict, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var conflicts []*models.LocalConflict

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var conflict models.LocalConflict
			if err := json.Unmarshal(v, &conflict); err != nil {
				return fmt.Errorf("failed to unmarshal conflict: %w", err)
			}
			if status == "" || conflict.Status == status {
				conflicts = append(conflicts, &conflict)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicts: %w", err)
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
	})

	return conflicts, nil
}

// ResolveConflict mutates the conflict and its event in one transaction
func (s *Storage) ResolveConflict(ctx context.Context, id string, fn func(conflict *models.LocalConflict, event *models.LocalEvent) error) (*models.LocalConflict, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var conflict *models.LocalConflict

	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		conflict, err = getConflict(tx, id)
		if err != nil {
			return err
		}

		// Повторное разрешение ничего не меняет
		if conflict.IsResolved() {
			return nil
		}

		event, err := getEvent(tx, conflict.EventID)
		if err != nil && !errors.Is(err, storage.ErrEventNotFound) {
			return err
		}

		if err := fn(conflict, event); err != nil {
			return err
		}

		if event != nil {
			if err := putEvent(tx, event); err != nil {
				return err
			}
		}
		return putConflict(tx, conflict)
	})
	if err != nil {
		return nil, err
	}

	return conflict, nil
}
