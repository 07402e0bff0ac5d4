package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/iudanet/posync/internal/client/api"
	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/internal/client/resilience"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/pkg/api"
)

func TestServerRemote_EntityHistory(t *testing.T) {
	client := &httpClient.ClientAPIMock{
		EntityHistoryFunc: func(ctx context.Context, accessToken, entityType, entityID string) (*api.EntityHistoryResponse, error) {
			assert.Equal(t, "token-b", accessToken)
			return &api.EntityHistoryResponse{
				EntityType: entityType,
				EntityID:   entityID,
				Events: []api.Event{
					{EventID: "a-created", ServerSeq: 1, Type: models.EventCustomerCreated},
					{EventID: "a-update", ServerSeq: 2, Type: models.EventCustomerUpdated},
				},
			}, nil
		},
	}

	remote := NewServerRemote(client, auth.StaticToken("token-b"), resilience.NewGroup(resilience.DefaultSettings()))

	events, err := remote.EntityHistory(context.Background(), models.EntityCustomer, "c1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a-update", events[1].EventID)
	assert.Equal(t, models.SyncStatusSynced, events[1].SyncStatus)

	require.Len(t, client.EntityHistoryCalls(), 1)
	assert.Equal(t, "c1", client.EntityHistoryCalls()[0].EntityID)
}

func TestServerRemote_AcknowledgeResolution(t *testing.T) {
	client := &httpClient.ClientAPIMock{
		ResolveConflictFunc: func(ctx context.Context, accessToken, conflictID string, req api.ResolveConflictRequest) (*api.ResolveConflictResponse, error) {
			return &api.ResolveConflictResponse{ConflictID: conflictID, Resolution: req.Resolution, Status: "resolved"}, nil
		},
	}

	remote := NewServerRemote(client, auth.StaticToken("token-b"), resilience.NewGroup(resilience.DefaultSettings()))

	require.NoError(t, remote.AcknowledgeResolution(context.Background(), "conflict-1", models.ResolutionMerge))
	require.Len(t, client.ResolveConflictCalls(), 1)
	assert.Equal(t, "conflict-1", client.ResolveConflictCalls()[0].ConflictID)
	assert.Equal(t, "merge", client.ResolveConflictCalls()[0].Req.Resolution)
}

func TestServerRemote_BreakerOpens(t *testing.T) {
	client := &httpClient.ClientAPIMock{
		EntityHistoryFunc: func(ctx context.Context, accessToken, entityType, entityID string) (*api.EntityHistoryResponse, error) {
			return nil, &httpClient.TransportError{Err: errors.New("connection refused")}
		},
	}

	breakers := resilience.NewGroup(resilience.Settings{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	})
	remote := NewServerRemote(client, auth.StaticToken("token-b"), breakers)

	for range 2 {
		_, err := remote.EntityHistory(context.Background(), models.EntityCustomer, "c1")
		require.Error(t, err)
	}

	_, err := remote.EntityHistory(context.Background(), models.EntityCustomer, "c1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Len(t, client.EntityHistoryCalls(), 2)
	assert.Equal(t, resilience.StateOpen, breakers.Get(resilience.GroupConflicts).State())
}

func TestServerRemote_NoToken(t *testing.T) {
	client := &httpClient.ClientAPIMock{}
	tokens := tokenSourceFunc(func(ctx context.Context) (string, error) {
		return "", auth.ErrNotLoggedIn
	})

	remote := NewServerRemote(client, tokens, resilience.NewGroup(resilience.DefaultSettings()))

	err := remote.AcknowledgeResolution(context.Background(), "conflict-1", models.ResolutionKeepMine)
	assert.ErrorIs(t, err, auth.ErrNotLoggedIn)
	assert.Empty(t, client.ResolveConflictCalls())
}

type tokenSourceFunc func(ctx context.Context) (string, error)

func (f tokenSourceFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}
