package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/server/storage"
)

const eventColumns = `
	seq, event_id, store_id, device_id, device_seq, type,
	entity_type, entity_id, vector_clock, payload, payload_hash,
	resolves_conflict, override, created_at`

// AppendEvent stores an accepted event and advances the store clock
func (s *Storage) AppendEvent(ctx context.Context, event *models.LocalEvent) error {
	clock, err := json.Marshal(event.VectorClock)
	if err != nil {
		return fmt.Errorf("failed to encode vector clock: %w", err)
	}

	var seq int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO events (
				event_id, store_id, device_id, device_seq, type,
				entity_type, entity_id, vector_clock, payload, payload_hash,
				resolves_conflict, override, created_at, received_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			event.EventID,
			event.StoreID,
			event.DeviceID,
			event.Seq,
			event.Type,
			event.EntityType,
			event.EntityID,
			string(clock),
			[]byte(event.Payload),
			event.PayloadHash,
			event.ResolvesConflict,
			boolToInt(event.Override),
			event.CreatedAt.UnixMicro(),
			time.Now().UnixMicro(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", storage.ErrDuplicateEvent, event.EventID)
			}
			return fmt.Errorf("failed to insert event: %w", err)
		}

		if seq, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get server seq: %w", err)
		}

		// Часы магазина: поэлементный максимум принятых часов
		for deviceID, counter := range event.VectorClock {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO store_clocks (store_id, device_id, counter) VALUES (?, ?, ?)
				ON CONFLICT (store_id, device_id) DO UPDATE SET counter = MAX(counter, excluded.counter)
			`, event.StoreID, deviceID, counter); err != nil {
				return fmt.Errorf("failed to update store clock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	event.ServerSeq = seq
	return nil
}

// GetEvent returns an accepted event by id
func (s *Storage) GetEvent(ctx context.Context, eventID string) (*models.LocalEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = ?`, eventID)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListSince returns events of the store after the given server sequence
func (s *Storage) ListSince(ctx context.Context, storeID string, since int64, limit int) ([]*models.LocalEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE store_id = ? AND seq > ? ORDER BY seq`
	args := []any{storeID, since}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryEvents(ctx, query, args...)
}

// EntityHistory returns all accepted events of one entity
func (s *Storage) EntityHistory(ctx context.Context, storeID, entityType, entityID string) ([]*models.LocalEvent, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE store_id = ? AND entity_type = ? AND entity_id = ?
		ORDER BY seq
	`, storeID, entityType, entityID)
}

// StoreClock returns the merged clock of the store
func (s *Storage) StoreClock(ctx context.Context, storeID string) (models.VectorClock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT device_id, counter FROM store_clocks WHERE store_id = ?`, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query store clock: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	clock := models.VectorClock{}
	for rows.Next() {
		var deviceID string
		var counter int64
		if err := rows.Scan(&deviceID, &counter); err != nil {
			return nil, fmt.Errorf("failed to scan clock entry: %w", err)
		}
		clock[deviceID] = counter
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return clock, nil
}

// LastSeq returns the highest server sequence of the store
func (s *Storage) LastSeq(ctx context.Context, storeID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events WHERE store_id = ?`, storeID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	return seq, nil
}

func (s *Storage) queryEvents(ctx context.Context, query string, args ...any) ([]*models.LocalEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	events := []*models.LocalEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return events, nil
}

// scanner общий интерфейс sql.Row и sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.LocalEvent, error) {
	event := &models.LocalEvent{SyncStatus: models.SyncStatusSynced}
	var clock string
	var payload []byte
	var override int
	var createdAt int64

	if err := row.Scan(
		&event.ServerSeq,
		&event.EventID,
		&event.StoreID,
		&event.DeviceID,
		&event.Seq,
		&event.Type,
		&event.EntityType,
		&event.EntityID,
		&clock,
		&payload,
		&event.PayloadHash,
		&event.ResolvesConflict,
		&override,
		&createdAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(clock), &event.VectorClock); err != nil {
		return nil, fmt.Errorf("corrupted vector clock of %s: %w", event.EventID, err)
	}
	event.Payload = json.RawMessage(payload)
	event.Override = intToBool(override)
	event.CreatedAt = time.UnixMicro(createdAt).UTC()

	return event, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMicro(v.Int64).UTC()
	return &t
}
