package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

// getEvent читает событие внутри транзакции
func getEvent(tx *bbolt.Tx, eventID string) (*models.LocalEvent, error) {
	data := tx.Bucket(bucketEvents).Get([]byte(eventID))
	if data == nil {
		return nil, storage.ErrEventNotFound
	}

	return decodeEvent(eventID, data)
}

func decodeEvent(eventID string, data []byte) (*models.LocalEvent, error) {
	event := &models.LocalEvent{}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("%w %s: %w", storage.ErrCorruptEvent, eventID, err)
	}
	return event, nil
}

// skipCorrupt логирует и пропускает нечитаемую запись, чтобы одна
// поврежденная строка не останавливала outbox
func (s *Storage) skipCorrupt(err error) error {
	if errors.Is(err, storage.ErrCorruptEvent) {
		s.logger.Warn("Skipping corrupt event record", "error", err)
		return nil
	}
	return err
}

// putEvent сохраняет событие и поддерживает индекс pending событий
func putEvent(tx *bbolt.Tx, event *models.LocalEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := tx.Bucket(bucketEvents).Put([]byte(event.EventID), data); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	idx := tx.Bucket(bucketPending)
	key := seqKey(event.Seq, event.EventID)
	if event.SyncStatus == models.SyncStatusPending {
		return idx.Put(key, nil)
	}
	return idx.Delete(key)
}

// AppendEvent stores a new event and the clock state in one transaction
func (s *Storage) AppendEvent(ctx context.Context, event *models.LocalEvent, clock *models.ClockState) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		id := []byte(event.EventID)
		if tx.Bucket(bucketEvents).Get(id) != nil || tx.Bucket(bucketArchived).Get(id) != nil {
			return storage.ErrDuplicateEvent
		}

		if err := putEvent(tx, event); err != nil {
			return err
		}

		if clock != nil {
			if err := putClock(tx, clock); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetEvent retrieves an event by id
func (s *Storage) GetEvent(ctx context.Context, eventID string) (*models.LocalEvent, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var event *models.LocalEvent
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		event, err = getEvent(tx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// ListPending returns due, unblocked pending events in FIFO order
func (s *Storage) ListPending(ctx context.Context, now time.Time, limit int) ([]*models.LocalEvent, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var events []*models.LocalEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPending).ForEach(func(k, _ []byte) error {
			event, err := getEvent(tx, string(k[8:]))
			if err != nil {
				return s.skipCorrupt(err)
			}

			if event.SyncStatus != models.SyncStatusPending || event.IsBlocked() {
				return nil
			}
			if event.NextRetryAt != nil && event.NextRetryAt.After(now) {
				return nil
			}

			events = append(events, event)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].Seq < events[j].Seq
	})

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

// ListEvents returns events with the given status ordered by seq
func (s *Storage) ListEvents(ctx context.Context, status models.SyncStatus) ([]*models.LocalEvent, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var events []*models.LocalEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			event, err := decodeEvent(string(k), v)
			if err != nil {
				return s.skipCorrupt(err)
			}

			if status == "" || event.SyncStatus == status {
				events = append(events, event)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Seq < events[j].Seq })

	return events, nil
}

// UpdateEvents applies fn to every id in one transaction, best effort per id
func (s *Storage) UpdateEvents(ctx context.Context, ids []string, fn func(event *models.LocalEvent) error) (*storage.BulkResult, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	result := storage.NewBulkResult()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			event, err := getEvent(tx, id)
			if err != nil {
				result.Failed[id] = err
				continue
			}

			if err := fn(event); err != nil {
				result.Failed[id] = err
				continue
			}

			if err := putEvent(tx, event); err != nil {
				result.Failed[id] = err
				continue
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update transaction failed: %w", err)
	}

	return result, nil
}

// Reconcile applies one server reply atomically
func (s *Storage) Reconcile(ctx context.Context, rec *storage.Reconciliation) (*storage.BulkResult, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	result := storage.NewBulkResult()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		update := func(id string, fn func(event *models.LocalEvent)) {
			event, err := getEvent(tx, id)
			if err != nil {
				result.Failed[id] = err
				return
			}
			if event.SyncStatus != models.SyncStatusPending {
				result.Failed[id] = fmt.Errorf("event is %s, not pending", event.SyncStatus)
				return
			}

			// Ответ получен, значит попытка доставки состоялась
			event.SyncAttempts++
			fn(event)

			if err := putEvent(tx, event); err != nil {
				result.Failed[id] = err
				return
			}
			result.Updated++
		}

		for _, synced := range rec.Synced {
			update(synced.EventID, func(event *models.LocalEvent) {
				syncedAt := rec.SyncedAt
				event.SyncStatus = models.SyncStatusSynced
				event.SyncedAt = &syncedAt
				event.ServerSeq = synced.ServerSeq
				event.NextRetryAt = nil
				event.LastError = ""
			})
		}

		for id, reason := range rec.Failed {
			update(id, func(event *models.LocalEvent) {
				event.SyncStatus = models.SyncStatusFailed
				event.NextRetryAt = nil
				event.LastError = reason
			})
		}

		for _, conflict := range rec.Conflicts {
			if _, failed := result.Failed[conflict.EventID]; failed {
				continue
			}

			// Конфликт записывается только для события, которое еще ждет отправки
			event, err := getEvent(tx, conflict.EventID)
			if err != nil {
				result.Failed[conflict.EventID] = err
				continue
			}
			if event.SyncStatus != models.SyncStatusPending {
				result.Failed[conflict.EventID] = fmt.Errorf("event is %s, not pending", event.SyncStatus)
				continue
			}

			stored, err := upsertConflict(tx, conflict)
			if err != nil {
				result.Failed[conflict.EventID] = err
				continue
			}

			update(conflict.EventID, func(event *models.LocalEvent) {
				// Событие остаётся pending, но не отправляется до разрешения
				if !stored.IsResolved() {
					event.ConflictID = stored.ID
				}
				event.NextRetryAt = nil
				event.LastError = stored.Reason
			})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile transaction failed: %w", err)
	}

	return result, nil
}

// ResetFailed moves failed events back to pending
func (s *Storage) ResetFailed(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var reset int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		var failed []*models.LocalEvent

		err := tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			event, err := decodeEvent(string(k), v)
			if err != nil {
				return s.skipCorrupt(err)
			}
			if event.SyncStatus == models.SyncStatusFailed {
				failed = append(failed, event)
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Изменять bucket внутри ForEach нельзя, поэтому обновляем после обхода
		for _, event := range failed {
			event.SyncStatus = models.SyncStatusPending
			event.SyncAttempts = 0
			event.LastError = ""
			event.NextRetryAt = nil

			if err := putEvent(tx, event); err != nil {
				return err
			}
			reset++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset transaction failed: %w", err)
	}

	return reset, nil
}

// CountByStatus returns the number of events per status
func (s *Storage) CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	counts := make(map[models.SyncStatus]int)

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			var event struct {
				SyncStatus models.SyncStatus `json:"sync_status"`
			}
			if err := json.Unmarshal(v, &event); err != nil {
				counts[storage.StatusCorrupt]++
				return nil
			}
			counts[event.SyncStatus]++
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	return counts, nil
}

// ListSyncedBefore returns synced events acknowledged before cutoff, ordered by seq
func (s *Storage) ListSyncedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.LocalEvent, error) {
	events, err := s.ListEvents(ctx, models.SyncStatusSynced)
	if err != nil {
		return nil, err
	}

	out := events[:0]
	for _, event := range events {
		if event.SyncedAt != nil && event.SyncedAt.Before(cutoff) {
			out = append(out, event)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// RemoveArchived drops events from the hot store and reserves their ids
func (s *Storage) RemoveArchived(ctx context.Context, ids []string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			event, err := getEvent(tx, id)
			if err != nil {
				return err
			}

			if err := tx.Bucket(bucketPending).Delete(seqKey(event.Seq, event.EventID)); err != nil {
				return err
			}
			if err := tx.Bucket(bucketEvents).Delete([]byte(id)); err != nil {
				return fmt.Errorf("failed to delete archived event: %w", err)
			}
			if err := tx.Bucket(bucketArchived).Put([]byte(id), seqKey(event.Seq, event.DeviceID)); err != nil {
				return fmt.Errorf("failed to reserve archived id: %w", err)
			}
		}
		return nil
	})
}

// MaxSeq returns the highest seq used by the device, archived events included
func (s *Storage) MaxSeq(ctx context.Context, deviceID string) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var maxSeq int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			var event struct {
				DeviceID string `json:"device_id"`
				Seq      int64  `json:"seq"`
			}
			if err := json.Unmarshal(v, &event); err != nil {
				// Повреждённая запись не должна мешать восстановлению seq
				return nil
			}
			if event.DeviceID == deviceID && event.Seq > maxSeq {
				maxSeq = event.Seq
			}
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketArchived).ForEach(func(k, v []byte) error {
			if string(v[8:]) == deviceID && bytesInt64(v) > maxSeq {
				maxSeq = bytesInt64(v)
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get max seq: %w", err)
	}

	return maxSeq, nil
}
