package models

import "time"

// ConflictStatus состояние конфликта
type ConflictStatus string

const (
	ConflictStatusPending  ConflictStatus = "pending"
	ConflictStatusResolved ConflictStatus = "resolved"
)

// Resolution стратегия разрешения конфликта, выбранная оператором
type Resolution string

const (
	ResolutionKeepMine   Resolution = "keep_mine"
	ResolutionTakeTheirs Resolution = "take_theirs"
	ResolutionMerge      Resolution = "merge"
)

// Valid reports whether r is one of the supported strategies.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionKeepMine, ResolutionTakeTheirs, ResolutionMerge:
		return true
	}
	return false
}

// LocalConflict представляет расхождение, о котором сообщил сервер.
// Записи не удаляются и хранятся для аудита.
type LocalConflict struct {
	CreatedAt            time.Time      `json:"created_at"`
	ResolvedAt           *time.Time     `json:"resolved_at,omitempty"`
	ID                   string         `json:"id"`                   // ID присвоен сервером
	EventID              string         `json:"event_id"`             // EventID локальное событие
	Reason               string         `json:"reason"`               // Reason человекочитаемое описание
	EntityType           string         `json:"entity_type,omitempty"`
	EntityID             string         `json:"entity_id,omitempty"`
	Status               ConflictStatus `json:"status"`
	Resolution           Resolution     `json:"resolution,omitempty"`
	ConflictingWith      []string       `json:"conflicting_with"` // ConflictingWith события с другой стороны
	RequiresManualReview bool           `json:"requires_manual_review"`
}

// IsResolved reports whether the conflict reached its terminal state.
func (c *LocalConflict) IsResolved() bool {
	return c.Status == ConflictStatusResolved
}
