package crdt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/posync/internal/models"
)

var (
	// ErrClockNotFound is returned by ClockStorage when no clock has been persisted yet.
	ErrClockNotFound = errors.New("vector clock not found")

	// ErrClockCorrupted is returned by ClockStorage when the persisted clock cannot be decoded.
	ErrClockCorrupted = errors.New("vector clock corrupted")
)

//go:generate moq -out clockstorage_mock.go . ClockStorage

// ClockStorage persists the vector clock state of the device.
type ClockStorage interface {
	// LoadClock returns ErrClockNotFound on first run and ErrClockCorrupted
	// when the stored state is unreadable.
	LoadClock(ctx context.Context) (*models.ClockState, error)

	// SaveClock stores the state as-is.
	SaveClock(ctx context.Context, state *models.ClockState) error

	// MaxSeq returns the highest seq stored in the outbox for the device.
	// Used to recover the sequence after the clock had to be reinitialised.
	MaxSeq(ctx context.Context, deviceID string) (int64, error)
}

// Stamp is the causal metadata assigned to one new local event.
type Stamp struct {
	Clock models.VectorClock
	State *models.ClockState // состояние часов после тика, сохраняется вместе с событием
	Seq   int64
}

// ClockManager хранит векторные часы устройства.
// Все изменения сериализуются мьютексом; тик фиксируется в памяти только
// после успешной записи события (см. Tick).
type ClockManager struct {
	storage ClockStorage
	logger  *slog.Logger
	state   *models.ClockState
	mu      sync.Mutex
}

// NewClockManager loads the device clock from storage.
//
// On first run the own entry is initialised to 0. If the persisted clock is
// corrupted or lacks the own-device entry, the clock is reinitialised at zero,
// the sequence is recovered from the outbox and a full resync is flagged.
func NewClockManager(ctx context.Context, deviceID string, storage ClockStorage, logger *slog.Logger) (*ClockManager, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id cannot be empty")
	}

	m := &ClockManager{
		storage: storage,
		logger:  logger,
	}

	state, err := storage.LoadClock(ctx)
	switch {
	case err == nil && state.DeviceID == deviceID && state.Clock != nil && hasEntry(state.Clock, deviceID):
		m.state = state
		return m, nil

	case errors.Is(err, ErrClockNotFound):
		// Первый запуск устройства
		m.state = &models.ClockState{
			DeviceID: deviceID,
			Clock:    models.VectorClock{deviceID: 0},
		}
		if err := storage.SaveClock(ctx, m.state); err != nil {
			return nil, fmt.Errorf("failed to initialise vector clock: %w", err)
		}
		return m, nil

	case err != nil && !errors.Is(err, ErrClockCorrupted):
		return nil, fmt.Errorf("failed to load vector clock: %w", err)
	}

	// Часы повреждены: переинициализируем и помечаем для полной пересинхронизации
	logger.Warn("Vector clock is corrupted, reinitialising", "device_id", deviceID, "error", err)

	lastSeq, seqErr := storage.MaxSeq(ctx, deviceID)
	if seqErr != nil {
		return nil, fmt.Errorf("failed to recover sequence: %w", seqErr)
	}

	m.state = &models.ClockState{
		DeviceID:       deviceID,
		Clock:          models.VectorClock{deviceID: 0},
		LastSeq:        lastSeq,
		ResyncRequired: true,
	}
	if err := storage.SaveClock(ctx, m.state); err != nil {
		return nil, fmt.Errorf("failed to save reinitialised vector clock: %w", err)
	}

	return m, nil
}

func hasEntry(clock models.VectorClock, deviceID string) bool {
	_, ok := clock[deviceID]
	return ok
}

// DeviceID returns the id of the device owning this clock.
func (m *ClockManager) DeviceID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.DeviceID
}

// Snapshot returns a copy of the current clock.
func (m *ClockManager) Snapshot() models.VectorClock {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Clock.Clone()
}

// LastSeq returns the last sequence number issued to a local event.
func (m *ClockManager) LastSeq() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.LastSeq
}

// Tick advances the own counter and the sequence by one and hands the stamp
// to commit, which must persist the new event together with Stamp.State in a
// single transaction. The in-memory clock only advances when commit succeeds,
// so a tick without a stored event (or the reverse) cannot happen.
func (m *ClockManager) Tick(commit func(Stamp) error) (Stamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.Clone()
	next.Clock[next.DeviceID]++
	next.LastSeq++

	stamp := Stamp{
		Clock: next.Clock.Clone(),
		Seq:   next.LastSeq,
		State: next,
	}

	if err := commit(stamp); err != nil {
		return Stamp{}, err
	}

	m.state = next
	return stamp, nil
}

// Merge folds a remote clock into the local view taking the per-device maximum.
// Counters never decrease.
func (m *ClockManager) Merge(ctx context.Context, remote models.VectorClock) error {
	if len(remote) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	merged := Merge(m.state.Clock, remote)
	if Compare(merged, m.state.Clock) == Equal {
		return nil
	}

	next := m.state.Clone()
	next.Clock = merged

	if err := m.storage.SaveClock(ctx, next); err != nil {
		return fmt.Errorf("failed to save merged clock: %w", err)
	}

	m.state = next
	return nil
}

// ResyncRequired reports whether the clock was reinitialised and a full pull is due.
func (m *ClockManager) ResyncRequired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.ResyncRequired
}

// ClearResync drops the resync flag once a full pull has completed.
func (m *ClockManager) ClearResync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.ResyncRequired {
		return nil
	}

	next := m.state.Clone()
	next.ResyncRequired = false

	if err := m.storage.SaveClock(ctx, next); err != nil {
		return fmt.Errorf("failed to clear resync flag: %w", err)
	}

	m.state = next
	return nil
}
