// Package sync drains the outbox to the server and pulls events recorded by
// the other devices of the store.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	httpClient "github.com/iudanet/posync/internal/client/api"
	"github.com/iudanet/posync/internal/client/auth"
	"github.com/iudanet/posync/internal/client/metrics"
	"github.com/iudanet/posync/internal/client/outbox"
	"github.com/iudanet/posync/internal/client/projection"
	"github.com/iudanet/posync/internal/client/resilience"
	"github.com/iudanet/posync/internal/client/storage"
	"github.com/iudanet/posync/internal/crdt"
	"github.com/iudanet/posync/internal/models"
	"github.com/iudanet/posync/pkg/api"
)

// ErrOffline is returned by RunRound while the device is marked offline.
var ErrOffline = errors.New("device is offline")

// Trigger reasons
const (
	ReasonStartup      = "startup"
	ReasonTimer        = "timer"
	ReasonManual       = "manual"
	ReasonConnectivity = "connectivity"
	ReasonNotification = "notification"
)

//go:generate moq -out service_mock.go . Service

// Service определяет интерфейс планировщика для CLI
type Service interface {
	// RunRound выполняет один раунд синхронизации
	RunRound(ctx context.Context, reason string) (*RoundResult, error)
}

// Config holds scheduler settings.
type Config struct {
	ClientVersion string
	Interval      time.Duration // период фонового раунда
	BatchSize     int           // событий за одно чтение outbox
	PullLimit     int           // событий за один запрос pull
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		ClientVersion: "posync/1.0",
		Interval:      30 * time.Second,
		BatchSize:     100,
		PullLimit:     500,
	}
}

// RoundResult describes one sync round.
type RoundResult struct {
	StartedAt  time.Time
	Reason     string
	Duration   time.Duration
	Pushed     int // событий отправлено на сервер
	Accepted   int // принято сервером
	Failed     int // отклонено валидацией
	Conflicted int // отклонено как конфликт
	Skipped    int // не отправлено: breaker открыт
	Retrying   int // нет ответа сервера, повтор после backoff
	Ambiguous  int // нет в ответе сервера, остаются pending
	Pulled     int // получено с сервера
	Applied    int // применено к проекциям
	Divergent  int // расхождения, найденные локально
}

// Scheduler runs sync rounds on demand and in the background.
type Scheduler struct {
	client      httpClient.ClientAPI
	tokens      auth.TokenSource
	outbox      *outbox.Outbox
	clock       *crdt.ClockManager
	projection  *projection.Engine
	metadata    storage.MetadataStorage
	breakers    *resilience.Group
	metrics     *metrics.Sync
	logger      *slog.Logger
	now         func() time.Time
	trigger     chan string
	roundCancel context.CancelFunc
	stop        context.CancelFunc
	done        chan struct{}
	cfg         Config
	online      bool
	mu          sync.Mutex // online, roundCancel, stop, done
	roundMu     sync.Mutex // один раунд одновременно
}

var _ Service = (*Scheduler)(nil)

// New creates a scheduler. m may be nil.
func New(
	client httpClient.ClientAPI,
	tokens auth.TokenSource,
	ob *outbox.Outbox,
	clock *crdt.ClockManager,
	proj *projection.Engine,
	metadata storage.MetadataStorage,
	breakers *resilience.Group,
	m *metrics.Sync,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PullLimit <= 0 {
		cfg.PullLimit = def.PullLimit
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = def.ClientVersion
	}

	return &Scheduler{
		client:     client,
		tokens:     tokens,
		outbox:     ob,
		clock:      clock,
		projection: proj,
		metadata:   metadata,
		breakers:   breakers,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
		trigger:    make(chan string, 1),
		cfg:        cfg,
		online:     true,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start launches the background worker. It runs a round right away, then on
// every tick and on every trigger. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.Trigger(ReasonStartup)
	go s.loop(ctx, done)

	s.logger.Info("Sync scheduler started", "interval", s.cfg.Interval)
}

// Stop cancels the in-flight round and waits for the worker to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.logger.Info("Sync scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runBackground(ctx, ReasonTimer)
		case reason := <-s.trigger:
			s.runBackground(ctx, reason)
		}
	}
}

func (s *Scheduler) runBackground(ctx context.Context, reason string) {
	if !s.Online() {
		s.logger.Debug("Sync round skipped: offline", "reason", reason)
		s.metrics.ObserveRound(metrics.RoundOffline, 0)
		return
	}
	if _, err := s.RunRound(ctx, reason); err != nil && ctx.Err() == nil {
		s.logger.Warn("Sync round finished with errors", "reason", reason, "error", err)
	}
}

// Trigger asks the worker for a round. Requests made while one is already
// queued are coalesced; Trigger reports whether the request was queued.
func (s *Scheduler) Trigger(reason string) bool {
	select {
	case s.trigger <- reason:
		return true
	default:
		return false
	}
}

// Online reports the connectivity flag.
func (s *Scheduler) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetOnline updates the connectivity flag. Going offline cancels the
// in-flight round; coming back online triggers a round.
func (s *Scheduler) SetOnline(online bool) {
	s.mu.Lock()
	was := s.online
	s.online = online
	cancel := s.roundCancel
	s.mu.Unlock()

	if was == online {
		return
	}

	s.logger.Info("Connectivity changed", "online", online)

	if !online && cancel != nil {
		cancel()
	}
	if online {
		s.Trigger(ReasonConnectivity)
	}
}

// RunRound pushes pending events, then pulls events of the other devices.
// Cancelling ctx (or going offline) aborts the round at the network wait;
// the outbox is only updated from complete replies.
func (s *Scheduler) RunRound(ctx context.Context, reason string) (*RoundResult, error) {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	if !s.Online() {
		return nil, ErrOffline
	}

	roundCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.roundCancel = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		s.roundCancel = nil
		s.mu.Unlock()
	}()

	result := &RoundResult{
		StartedAt: s.now(),
		Reason:    reason,
	}

	s.logger.Debug("Sync round started", "reason", reason)

	err := s.push(roundCtx, result)
	if roundCtx.Err() == nil {
		err = errors.Join(err, s.pull(roundCtx, result))
	}

	result.Duration = s.now().Sub(result.StartedAt)
	s.report(ctx, result, err)

	if ctxErr := roundCtx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(err, ctxErr)
	}
	return result, err
}

func (s *Scheduler) report(ctx context.Context, result *RoundResult, err error) {
	outcome := metrics.RoundOK
	switch {
	case err != nil && result.Accepted == 0 && result.Applied == 0:
		outcome = metrics.RoundFailed
	case err != nil || result.Skipped > 0 || result.Retrying > 0:
		outcome = metrics.RoundPartial
	}

	s.metrics.ObserveRound(outcome, result.Duration)
	s.metrics.AddEvents(metrics.OutcomePushed, result.Pushed)
	s.metrics.AddEvents(metrics.OutcomeAccepted, result.Accepted)
	s.metrics.AddEvents(metrics.OutcomeFailed, result.Failed)
	s.metrics.AddEvents(metrics.OutcomeConflicted, result.Conflicted)
	s.metrics.AddEvents(metrics.OutcomeSkipped, result.Skipped)
	s.metrics.AddEvents(metrics.OutcomeAmbiguous, result.Ambiguous)
	s.metrics.AddEvents(metrics.OutcomePulled, result.Pulled)
	s.metrics.AddEvents(metrics.OutcomeApplied, result.Applied)

	for _, snap := range s.breakers.Snapshots() {
		s.metrics.SetBreakerState(snap.Name, snap.State)
	}

	// Статистика читается без отменённого контекста раунда
	bg := context.WithoutCancel(ctx)
	if stats, statsErr := s.outbox.Stats(bg); statsErr == nil {
		s.metrics.SetQueue(stats.Pending, stats.Failed, stats.OpenConflicts)
	}
	if outcome == metrics.RoundOK {
		if saveErr := s.metadata.SaveLastSyncAt(bg, result.StartedAt.Add(result.Duration)); saveErr != nil {
			s.logger.Warn("Failed to save last sync time", "error", saveErr)
		}
	}

	s.logger.Info("Sync round completed",
		"reason", result.Reason,
		"outcome", outcome,
		"pushed", result.Pushed,
		"accepted", result.Accepted,
		"failed", result.Failed,
		"conflicted", result.Conflicted,
		"skipped", result.Skipped,
		"retrying", result.Retrying,
		"pulled", result.Pulled,
		"applied", result.Applied,
		"duration", result.Duration)
}

// origin groups events of one (store, device) pair.
type origin struct {
	storeID  string
	deviceID string
}

// groupByOrigin keeps FIFO order inside each group and orders groups by their
// oldest event.
func groupByOrigin(events []*models.LocalEvent) [][]*models.LocalEvent {
	index := make(map[origin]int)
	var groups [][]*models.LocalEvent

	for _, event := range events {
		key := origin{storeID: event.StoreID, deviceID: event.DeviceID}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], event)
	}
	return groups
}

func eventIDs(events []*models.LocalEvent) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.EventID)
	}
	return ids
}

func (s *Scheduler) push(ctx context.Context, result *RoundResult) error {
	events, err := s.outbox.ListPending(ctx, s.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	var errs []error
	for _, group := range groupByOrigin(events) {
		if err := s.pushGroup(ctx, group, result); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// pushGroup sends one device batch and reconciles the reply.
func (s *Scheduler) pushGroup(ctx context.Context, group []*models.LocalEvent, result *RoundResult) error {
	first := group[0]
	ids := eventIDs(group)

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	wire := make([]api.Event, 0, len(group))
	for _, e := range group {
		wire = append(wire, httpClient.ToWire(e))
	}
	req := api.PushRequest{
		StoreID:       first.StoreID,
		DeviceID:      first.DeviceID,
		ClientVersion: s.cfg.ClientVersion,
		Events:        wire,
	}

	var (
		resp    *api.PushResponse
		callErr error
	)
	err = s.breakers.Execute(ctx, resilience.GroupPush, func(ctx context.Context) error {
		resp, callErr = s.client.Push(ctx, token, req)
		// Сервер ответил: отказ валидации не говорит о его недоступности
		if te, ok := httpClient.AsTransportError(callErr); ok && te.IsValidation() {
			return nil
		}
		return callErr
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		result.Skipped += len(group)
		s.logger.Info("Push skipped: circuit open",
			"store_id", first.StoreID,
			"device_id", first.DeviceID,
			"events", len(group))
		return nil

	case err != nil && ctx.Err() != nil:
		return err

	case err != nil:
		result.Pushed += len(group)
		result.Retrying += len(group)
		if _, recErr := s.outbox.RecordAttempt(ctx, ids, err); recErr != nil {
			s.logger.Error("Failed to record delivery attempt", "error", recErr)
		}
		return fmt.Errorf("push failed: %w", err)
	}

	result.Pushed += len(group)

	if callErr != nil {
		// Весь пакет отклонён валидацией
		te, _ := httpClient.AsTransportError(callErr)
		reason := te.Message
		if reason == "" {
			reason = te.Error()
		}
		failed := make(map[string]string, len(ids))
		for _, id := range ids {
			failed[id] = reason
		}
		res, recErr := s.outbox.Reconcile(ctx, &storage.Reconciliation{
			SyncedAt: s.now().UTC(),
			Failed:   failed,
		})
		if recErr != nil {
			return fmt.Errorf("failed to reconcile rejected batch: %w", recErr)
		}
		result.Failed += res.Updated
		s.logger.Warn("Batch rejected by server", "events", len(group), "reason", reason)
		return nil
	}

	return s.reconcile(ctx, group, resp, result)
}

// reconcile applies a complete push reply in one storage transaction and
// merges the server clock.
func (s *Scheduler) reconcile(ctx context.Context, group []*models.LocalEvent, resp *api.PushResponse, result *RoundResult) error {
	now := s.now().UTC()

	sent := make(map[string]*models.LocalEvent, len(group))
	for _, e := range group {
		sent[e.EventID] = e
	}
	answered := make(map[string]struct{}, len(group))
	known := func(id string) bool {
		if _, ok := sent[id]; !ok {
			s.logger.Warn("Server replied for unknown event", "event_id", id)
			return false
		}
		answered[id] = struct{}{}
		return true
	}

	rec := &storage.Reconciliation{
		SyncedAt: now,
		Failed:   make(map[string]string),
	}

	for _, a := range resp.Accepted {
		if known(a.EventID) {
			rec.Synced = append(rec.Synced, storage.SyncedEvent{EventID: a.EventID, ServerSeq: a.ServerSeq})
		}
	}
	for _, r := range resp.Rejected {
		if known(r.EventID) {
			rec.Failed[r.EventID] = fmt.Sprintf("%s: %s", r.Code, r.Message)
		}
	}
	for _, c := range resp.Conflicted {
		if !known(c.EventID) {
			continue
		}
		event := sent[c.EventID]
		entityType, entityID := c.EntityType, c.EntityID
		if entityType == "" {
			entityType, entityID = event.EntityType, event.EntityID
		}
		rec.Conflicts = append(rec.Conflicts, &models.LocalConflict{
			ID:                   c.ConflictID,
			EventID:              c.EventID,
			Reason:               c.Reason,
			EntityType:           entityType,
			EntityID:             entityID,
			Status:               models.ConflictStatusPending,
			ConflictingWith:      c.ConflictingWith,
			RequiresManualReview: c.RequiresManualReview,
			CreatedAt:            now,
		})
	}

	for id := range sent {
		if _, ok := answered[id]; !ok {
			result.Ambiguous++
			s.logger.Warn("Event missing from server reply, left pending", "event_id", id)
		}
	}

	res, err := s.outbox.Reconcile(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to reconcile push reply: %w", err)
	}

	result.Accepted += len(rec.Synced)
	result.Failed += len(rec.Failed)
	result.Conflicted += len(rec.Conflicts)
	for _, c := range rec.Conflicts {
		s.logger.Warn("Conflict reported by server",
			"conflict_id", c.ID,
			"event_id", c.EventID,
			"entity_type", c.EntityType,
			"entity_id", c.EntityID,
			"reason", c.Reason)
	}
	if !res.OK() {
		s.logger.Warn("Push reply partially reconciled", "failed", len(res.Failed))
	}

	if len(resp.ServerVectorClock) > 0 {
		if err := s.clock.Merge(ctx, models.VectorClock(resp.ServerVectorClock)); err != nil {
			return fmt.Errorf("failed to merge server clock: %w", err)
		}
	}
	return nil
}
