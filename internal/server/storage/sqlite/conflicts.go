package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/internal/server/storage"
)

const conflictColumns = `
	id, store_id, event_id, device_id, entity_type, entity_id, reason,
	conflicting_with, requires_manual_review, status, resolution,
	created_at, resolved_at`

// CreateConflict stores a pending conflict unless one with the same id exists
func (s *Storage) CreateConflict(ctx context.Context, conflict *storage.Conflict) (*storage.Conflict, bool, error) {
	with, err := json.Marshal(conflict.ConflictingWith)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode conflicting events: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO conflicts (
			id, store_id, event_id, device_id, entity_type, entity_id, reason,
			conflicting_with, requires_manual_review, status, resolution, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		conflict.ID,
		conflict.StoreID,
		conflict.EventID,
		conflict.DeviceID,
		conflict.EntityType,
		conflict.EntityID,
		conflict.Reason,
		string(with),
		boolToInt(conflict.RequiresManualReview),
		models.ConflictStatusPending,
		"",
		conflict.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert conflict: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	stored, err := s.GetConflict(ctx, conflict.StoreID, conflict.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, rows == 1, nil
}

// GetConflict returns a conflict of the store
func (s *Storage) GetConflict(ctx context.Context, storeID, id string) (*storage.Conflict, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+conflictColumns+` FROM conflicts WHERE store_id = ? AND id = ?`, storeID, id)

	conflict, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrConflictNotFound
		}
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}
	return conflict, nil
}

// ResolveConflict marks a pending conflict resolved
func (s *Storage) ResolveConflict(ctx context.Context, storeID, id string, resolution models.Resolution, at time.Time) (*storage.Conflict, error) {
	resolvedAt := at.UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE conflicts SET status = ?, resolution = ?, resolved_at = ?
		WHERE store_id = ? AND id = ? AND status = ?
	`,
		models.ConflictStatusResolved,
		resolution,
		nullableTime(&resolvedAt),
		storeID,
		id,
		models.ConflictStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conflict: %w", err)
	}

	return s.GetConflict(ctx, storeID, id)
}

// ListConflicts returns conflicts of the store
func (s *Storage) ListConflicts(ctx context.Context, storeID string, status models.ConflictStatus) ([]*storage.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts WHERE store_id = ?`
	args := []any{storeID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	conflicts := []*storage.Conflict{}
	for rows.Next() {
		conflict, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		conflicts = append(conflicts, conflict)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return conflicts, nil
}

func scanConflict(row scanner) (*storage.Conflict, error) {
	conflict := &storage.Conflict{}
	var with string
	var manual int
	var createdAt int64
	var resolvedAt sql.NullInt64

	if err := row.Scan(
		&conflict.ID,
		&conflict.StoreID,
		&conflict.EventID,
		&conflict.DeviceID,
		&conflict.EntityType,
		&conflict.EntityID,
		&conflict.Reason,
		&with,
		&manual,
		&conflict.Status,
		&conflict.Resolution,
		&createdAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(with), &conflict.ConflictingWith); err != nil {
		return nil, fmt.Errorf("corrupted conflict %s: %w", conflict.ID, err)
	}
	conflict.RequiresManualReview = intToBool(manual)
	conflict.CreatedAt = time.UnixMicro(createdAt).UTC()
	conflict.ResolvedAt = timePtr(resolvedAt)

	return conflict, nil
}
