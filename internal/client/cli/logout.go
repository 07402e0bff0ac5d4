package cli

import (
	"context"
	"fmt"
)

// runLogout удаляет токен; очередь и проекции остаются на устройстве
func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	c.io.Println("✓ Device token removed")

	if c.outbox == nil {
		return nil
	}
	stats, err := c.outbox.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read outbox stats: %w", err)
	}
	if unsent := stats.Pending + stats.Failed; unsent > 0 {
		c.io.Printf("%d unsent event(s) stay in the outbox until this device logs in again.\n", unsent)
	}
	return nil
}
