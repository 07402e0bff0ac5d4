package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/posync/internal/models"
)

// runRecord: record <type> [<entity-type> <entity-id>] <payload-json>
func (c *Cli) runRecord(ctx context.Context, args []string) error {
	var in models.NewEvent

	switch len(args) {
	case 2:
		in.Type, in.Payload = args[0], json.RawMessage(args[1])
	case 4:
		in.Type, in.EntityType, in.EntityID = args[0], args[1], args[2]
		in.Payload = json.RawMessage(args[3])
	default:
		return fmt.Errorf("%w: record <type> [<entity-type> <entity-id>] <payload-json>", ErrUsage)
	}

	if !json.Valid(in.Payload) {
		return fmt.Errorf("%w: payload is not valid JSON", ErrUsage)
	}

	event, err := c.dataService.Record(ctx, in)
	if err != nil {
		return err
	}
	return c.printEvent(event)
}

func (c *Cli) printEvent(event *models.LocalEvent) error {
	if ok, err := c.printJSON(event); ok {
		return err
	}
	return render(c.io, eventTemplate, event)
}

// parsePatch разбирает JSON объект с изменяемыми полями
func parsePatch(raw string) (map[string]any, error) {
	var patch map[string]any
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return nil, fmt.Errorf("%w: patch must be a JSON object: %v", ErrUsage, err)
	}
	return patch, nil
}
