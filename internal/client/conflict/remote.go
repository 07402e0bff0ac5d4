package conflict

import (
	"context"

	httpClient "github.com/iudanet/posync/internal/client/api"
	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/internal/client/resilience"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/pkg/api"
)

// ServerRemote calls the sync server through the conflicts breaker.
type ServerRemote struct {
	client   httpClient.ClientAPI
	tokens   auth.TokenSource
	breakers *resilience.Group
}

var _ Remote = (*ServerRemote)(nil)

// NewServerRemote creates a Remote backed by the HTTP client.
func NewServerRemote(client httpClient.ClientAPI, tokens auth.TokenSource, breakers *resilience.Group) *ServerRemote {
	return &ServerRemote{
		client:   client,
		tokens:   tokens,
		breakers: breakers,
	}
}

func (r *ServerRemote) EntityHistory(ctx context.Context, entityType, entityID string) ([]*models.LocalEvent, error) {
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp *api.EntityHistoryResponse
	err = r.breakers.Execute(ctx, resilience.GroupConflicts, func(ctx context.Context) error {
		var err error
		resp, err = r.client.EntityHistory(ctx, token, entityType, entityID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return httpClient.FromWireAll(resp.Events), nil
}

func (r *ServerRemote) AcknowledgeResolution(ctx context.Context, conflictID string, resolution models.Resolution) error {
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	return r.breakers.Execute(ctx, resilience.GroupConflicts, func(ctx context.Context) error {
		_, err := r.client.ResolveConflict(ctx, token, conflictID, api.ResolveConflictRequest{
			Resolution: string(resolution),
		})
		return err
	})
}
