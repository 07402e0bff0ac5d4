package sync

import (
	"context"
	"errors"
	"fmt"

	httpClient "github.com/iudanet/posync/internal/client/api"
	"github.com/iudanet/posync/internal/client/resilience"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/pkg/api"
)

// pull fetches events accepted by the server after the last pulled sequence
// and folds them into the projections. A reinitialised clock forces a pull
// from the beginning of the log.
func (s *Scheduler) pull(ctx context.Context, result *RoundResult) error {
	resync := s.clock.ResyncRequired()

	var since int64
	if !resync {
		var err error
		since, err = s.metadata.GetLastPullSeq(ctx)
		if err != nil {
			s.logger.Warn("Failed to get last pull seq, using 0", "error", err)
			since = 0
		}
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	local, err := s.pendingByEntity(ctx)
	if err != nil {
		return err
	}

	for {
		var resp *api.PullResponse
		err := s.breakers.Execute(ctx, resilience.GroupPull, func(ctx context.Context) error {
			var err error
			resp, err = s.client.Pull(ctx, token, since, s.cfg.PullLimit)
			return err
		})
		if errors.Is(err, resilience.ErrCircuitOpen) {
			s.logger.Info("Pull skipped: circuit open", "since", since)
			return nil
		}
		if err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}

		events := httpClient.FromWireAll(resp.Events)
		result.Pulled += len(events)
		result.Divergent += s.detectDivergence(events, local)

		crdt.SortCausal(events)
		applied := s.projection.ApplyEvents(ctx, events)
		result.Applied += applied.Updated

		for _, event := range events {
			if err := s.clock.Merge(ctx, event.VectorClock); err != nil {
				return fmt.Errorf("failed to merge event clock: %w", err)
			}
		}
		if err := s.clock.Merge(ctx, models.VectorClock(resp.ServerVectorClock)); err != nil {
			return fmt.Errorf("failed to merge server clock: %w", err)
		}

		if resp.LastSeq > since {
			since = resp.LastSeq
			if err := s.metadata.SaveLastPullSeq(ctx, since); err != nil {
				s.logger.Warn("Failed to save last pull seq", "seq", since, "error", err)
			}
		}

		if !resp.HasMore || len(resp.Events) == 0 {
			break
		}
	}

	if resync {
		if err := s.clock.ClearResync(ctx); err != nil {
			return err
		}
		s.logger.Info("Full resync completed", "last_seq", since)
	}
	return nil
}

// pendingByEntity indexes local pending events by the entity they address.
func (s *Scheduler) pendingByEntity(ctx context.Context) (map[string][]*models.LocalEvent, error) {
	pending, err := s.outbox.List(ctx, models.SyncStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list local pending events: %w", err)
	}

	index := make(map[string][]*models.LocalEvent)
	for _, event := range pending {
		if key := event.EntityKey(); key != "" {
			index[key] = append(index[key], event)
		}
	}
	return index, nil
}

// detectDivergence counts pulled events of other devices that are causally
// concurrent with a local pending event on the same entity. It only reports:
// conflicts are created from server replies.
func (s *Scheduler) detectDivergence(remote []*models.LocalEvent, local map[string][]*models.LocalEvent) int {
	found := 0
	for _, r := range remote {
		if r.DeviceID == s.clock.DeviceID() {
			continue
		}
		for _, l := range local[r.EntityKey()] {
			if !crdt.IsConcurrent(r.VectorClock, l.VectorClock) {
				continue
			}
			found++
			s.metrics.IncDivergence()
			s.logger.Warn("Divergence with remote event",
				"entity", r.EntityKey(),
				"local_event_id", l.EventID,
				"remote_event_id", r.EventID,
				"remote_device_id", r.DeviceID)
		}
	}
	return found
}
