package conflict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
)

// ErrNothingToMerge is returned when every field of the local patch was
// changed concurrently on the server.
var ErrNothingToMerge = errors.New("all local fields were changed on the server")

type patchPayload struct {
	Patch map[string]json.RawMessage `json:"patch"`
}

// PatchMerger merges partial updates field by field. Fields the server
// changed concurrently keep the server value; the rest of the local patch is
// re-sent. idField names the entity id in the payload (product_id, customer_id).
func PatchMerger(idField string) Merger {
	return MergerFunc(func(ctx context.Context, mine *models.LocalEvent, theirs []*models.LocalEvent) (json.RawMessage, error) {
		var local patchPayload
		if err := json.Unmarshal(mine.Payload, &local); err != nil {
			return nil, fmt.Errorf("invalid local payload: %w", err)
		}
		if len(local.Patch) == 0 {
			return nil, fmt.Errorf("local event %s carries no patch", mine.EventID)
		}

		taken := make(map[string]bool)
		for _, remote := range theirs {
			if remote.EventID == mine.EventID || crdt.HappenedBefore(remote.VectorClock, mine.VectorClock) {
				continue
			}
			var p patchPayload
			if err := json.Unmarshal(remote.Payload, &p); err != nil {
				continue // не patch (создание, деактивация)
			}
			for field := range p.Patch {
				taken[field] = true
			}
		}

		merged := make(map[string]json.RawMessage, len(local.Patch))
		for field, value := range local.Patch {
			if !taken[field] {
				merged[field] = value
			}
		}
		if len(merged) == 0 {
			return nil, ErrNothingToMerge
		}

		return json.Marshal(map[string]any{
			idField: mine.EntityID,
			"patch": merged,
		})
	})
}

// RegisterPatchMergers enables merge for the built-in update events.
func (m *Manager) RegisterPatchMergers() {
	m.RegisterMerger(models.EventProductUpdated, PatchMerger("product_id"))
	m.RegisterMerger(models.EventCustomerUpdated, PatchMerger("customer_id"))
}
