package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	c.io.Println("=== Login ===")

	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		token, err = c.io.ReadPassword("Device token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: device token cannot be empty", ErrUsage)
	}

	session, err := c.authService.Login(ctx, token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println("✓ Device token saved")
	c.io.Printf("Store:  %s\n", session.StoreID)
	c.io.Printf("Device: %s\n", session.DeviceID)
	if !session.ExpiresAt.IsZero() {
		c.io.Printf("Expires: %s\n", session.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
