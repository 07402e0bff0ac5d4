package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/internal/client/outbox"
)

// statusView то, что выводит status
type statusView struct {
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	LastSyncAt  *time.Time    `json:"last_sync_at,omitempty"`
	Outbox      *outbox.Stats `json:"outbox"`
	StoreID     string        `json:"store_id,omitempty"`
	DeviceID    string        `json:"device_id,omitempty"`
	LastPullSeq int64         `json:"last_pull_seq"`
	LoggedIn    bool          `json:"logged_in"`
}

func (c *Cli) runStatus(ctx context.Context) error {
	view := statusView{}

	session, err := c.authService.Session(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
	case err != nil:
		return fmt.Errorf("failed to read session: %w", err)
	default:
		view.LoggedIn = true
		view.StoreID = session.StoreID
		view.DeviceID = session.DeviceID
		if !session.ExpiresAt.IsZero() {
			view.ExpiresAt = &session.ExpiresAt
		}
	}

	stats, err := c.outbox.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read outbox stats: %w", err)
	}
	view.Outbox = stats

	if c.cursor != nil {
		if view.LastPullSeq, err = c.cursor.GetLastPullSeq(ctx); err != nil {
			return fmt.Errorf("failed to read sync cursor: %w", err)
		}
		lastSync, err := c.cursor.GetLastSyncAt(ctx)
		if err != nil {
			return fmt.Errorf("failed to read sync cursor: %w", err)
		}
		if !lastSync.IsZero() {
			view.LastSyncAt = &lastSync
		}
	}

	if ok, err := c.printJSON(view); ok {
		return err
	}
	return render(c.io, statusTemplate, view)
}
