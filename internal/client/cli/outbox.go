package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/models"
)

func (c *Cli) runEvents(ctx context.Context, args []string) error {
	status := models.SyncStatusPending
	if len(args) > 0 {
		status = models.SyncStatus(args[0])
	}
	switch status {
	case models.SyncStatusPending, models.SyncStatusFailed, models.SyncStatusSynced, models.SyncStatusDiscarded:
	default:
		return fmt.Errorf("%w: events [pending|failed|synced|discarded]", ErrUsage)
	}

	events, err := c.outbox.List(ctx, status)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	if ok, err := c.printJSON(events); ok {
		return err
	}
	return render(c.io, eventListTemplate, events)
}

func (c *Cli) runResetFailed(ctx context.Context) error {
	n, err := c.outbox.ResetFailedToPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset events: %w", err)
	}

	if ok, err := c.printJSON(map[string]int{"reset": n}); ok {
		return err
	}
	if n == 0 {
		c.io.Println("No failed events.")
		return nil
	}
	c.io.Printf("✓ %d event(s) moved back to pending\n", n)
	return nil
}

func (c *Cli) runArchive(ctx context.Context) error {
	n, err := c.outbox.ArchiveSynced(ctx, c.retention)
	if errors.Is(err, outbox.ErrArchiveDisabled) {
		return fmt.Errorf("archive is disabled: set archive.enabled and archive.bucket in the configuration")
	}
	if err != nil {
		return fmt.Errorf("archive failed after %d event(s): %w", n, err)
	}

	if ok, err := c.printJSON(map[string]int{"archived": n}); ok {
		return err
	}
	c.io.Printf("✓ %d synced event(s) archived\n", n)
	return nil
}
