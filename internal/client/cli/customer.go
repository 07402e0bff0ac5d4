package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/posync/internal/client/data"
	"github.com/iudanet/posync/internal/client/storage"
)

func (c *Cli) runCustomer(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: customer create|show|update", ErrUsage)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "create":
		var in data.CustomerInput
		fs := newFlagSet("customer create")
		fs.StringVar(&in.ID, "id", "", "customer id (generated when empty)")
		fs.StringVar(&in.Name, "name", "", "full name")
		fs.StringVar(&in.DocumentID, "document", "", "document id")
		fs.StringVar(&in.Phone, "phone", "", "phone")
		fs.StringVar(&in.Email, "email", "", "email")
		fs.StringVar(&in.Note, "note", "", "note")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return c.recorded(c.dataService.CreateCustomer(ctx, in))

	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("%w: customer show <id>", ErrUsage)
		}
		customer, err := c.dataService.GetCustomer(ctx, rest[0])
		if errors.Is(err, storage.ErrEntityNotFound) {
			return fmt.Errorf("customer not found with ID: %s", rest[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get customer: %w", err)
		}
		if ok, err := c.printJSON(customer); ok {
			return err
		}
		return render(c.io, customerTemplate, customer)

	case "update":
		if len(rest) != 2 {
			return fmt.Errorf("%w: customer update <id> <patch-json>", ErrUsage)
		}
		patch, err := parsePatch(rest[1])
		if err != nil {
			return err
		}
		return c.recorded(c.dataService.UpdateCustomer(ctx, rest[0], patch))

	default:
		return fmt.Errorf("%w: customer create|show|update", ErrUsage)
	}
}
