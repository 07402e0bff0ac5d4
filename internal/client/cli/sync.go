package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/posync/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context) error {
	if c.io.IsTerminal() {
		c.io.Println("=== Synchronization ===")
		c.io.Println("Starting synchronization with server...")
	}

	result, err := c.syncService.RunRound(ctx, sync.ReasonManual)
	if result == nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	if ok, jsonErr := c.printJSON(result); ok {
		return errors.Join(err, jsonErr)
	}
	if rerr := render(c.io, roundTemplate, result); rerr != nil {
		return rerr
	}

	// Сетевые ошибки не теряют события: они останутся в очереди
	if err != nil {
		return fmt.Errorf("synchronization incomplete: %w", err)
	}
	return nil
}
