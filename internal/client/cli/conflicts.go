package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/posync/internal/client/conflict"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/models"
)

func (c *Cli) runConflicts(ctx context.Context, args []string) error {
	status := models.ConflictStatusPending
	if len(args) > 0 && args[0] == "--all" {
		status = ""
	}

	conflicts, err := c.conflicts.List(ctx, status)
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}
	if ok, err := c.printJSON(conflicts); ok {
		return err
	}
	return render(c.io, conflictListTemplate, conflicts)
}

var strategies = []string{
	string(models.ResolutionKeepMine),
	string(models.ResolutionTakeTheirs),
	string(models.ResolutionMerge),
}

func (c *Cli) runResolve(ctx context.Context, args []string) error {
	var id string
	var resolution models.Resolution

	switch {
	case len(args) == 2:
		id, resolution = args[0], models.Resolution(args[1])
		if !resolution.Valid() {
			return fmt.Errorf("%w: unknown strategy %q", ErrUsage, args[1])
		}
	case len(args) == 1 && c.io.IsTerminal():
		// без стратегии спрашиваем оператора
		id = args[0]
		var err error
		if resolution, err = c.askStrategy(ctx, id); err != nil {
			return err
		}
		if resolution == "" {
			return nil
		}
	default:
		return fmt.Errorf("%w: resolve <conflict-id> keep_mine|take_theirs|merge", ErrUsage)
	}

	resolved, err := c.conflicts.Resolve(ctx, id, resolution)
	switch {
	case errors.Is(err, storage.ErrConflictNotFound):
		return fmt.Errorf("conflict not found with ID: %s", id)
	case errors.Is(err, conflict.ErrMergeUnsupported):
		return fmt.Errorf("no merge is available for this event type, choose keep_mine or take_theirs")
	case err != nil:
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	if ok, err := c.printJSON(resolved); ok {
		return err
	}
	if resolved.Resolution != resolution {
		c.io.Printf("Conflict %s was already resolved with %s\n", resolved.ID, resolved.Resolution)
		return nil
	}
	c.io.Printf("✓ Conflict %s resolved with %s\n", resolved.ID, resolved.Resolution)
	if resolution == models.ResolutionKeepMine {
		c.io.Println("Your version will be sent on the next synchronization.")
	}
	return nil
}

// askStrategy показывает конфликт и читает стратегию.
// Пустой результат: конфликт уже разрешен.
func (c *Cli) askStrategy(ctx context.Context, id string) (models.Resolution, error) {
	current, err := c.conflicts.Get(ctx, id)
	if errors.Is(err, storage.ErrConflictNotFound) {
		return "", fmt.Errorf("conflict not found with ID: %s", id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load conflict: %w", err)
	}

	if err := render(c.io, conflictTemplate, current); err != nil {
		return "", err
	}
	if current.IsResolved() {
		return "", nil
	}

	answer, err := c.io.ReadChoice("Strategy", strategies)
	if err != nil {
		return "", fmt.Errorf("failed to read strategy: %w", err)
	}
	return models.Resolution(answer), nil
}
