package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errServer = errors.New("server unavailable")

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(t *testing.T) (*Breaker, *fakeClock, *[]State) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	var transitions []State

	b := NewBreaker("push", Settings{FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Minute},
		WithClock(clock.Now),
		WithStateChange(func(name string, from, to State) {
			transitions = append(transitions, to)
		}),
	)
	return b, clock, &transitions
}

func fail(ctx context.Context) error    { return errServer }
func succeed(ctx context.Context) error { return nil }

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	ctx := context.Background()
	b, _, transitions := newTestBreaker(t)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(ctx, fail), errServer)
	}
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, []State{StateOpen}, *transitions)

	// Следующий вызов отклоняется без обращения к сети
	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newTestBreaker(t)

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	require.NoError(t, b.Execute(ctx, succeed))
	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 2, b.Snapshot().FailureCount)
}

func TestBreaker_HalfOpenSingleProbe(t *testing.T) {
	ctx := context.Background()
	b, clock, _ := newTestBreaker(t)

	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, fail)
	}

	clock.Advance(59 * time.Second)
	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrCircuitOpen)
	assert.False(t, b.Allows())

	clock.Advance(time.Second)
	assert.True(t, b.Allows())

	probeStarted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)

	go func() {
		done <- b.Execute(ctx, func(ctx context.Context) error {
			close(probeStarted)
			<-release
			return nil
		})
	}()

	<-probeStarted
	assert.Equal(t, StateHalfOpen, b.State())

	// Пока выполняется проба, другие вызовы не пропускаются
	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrCircuitOpen)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateHalfOpen, b.State())

	// Второй успех закрывает цепь
	require.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.Snapshot().FailureCount)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	b, clock, transitions := newTestBreaker(t)

	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, fail)
	}
	clock.Advance(time.Minute)

	require.NoError(t, b.Execute(ctx, succeed))
	assert.ErrorIs(t, b.Execute(ctx, fail), errServer)

	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, clock.Now().Add(time.Minute), b.Snapshot().NextAttemptTime)
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateOpen}, *transitions)

	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestBreaker_CancellationIsNeutral(t *testing.T) {
	b, _, _ := newTestBreaker(t)

	for i := 0; i < 5; i++ {
		err := b.Execute(context.Background(), func(ctx context.Context) error {
			return context.Canceled
		})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, StateClosed, b.State())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestBreaker_Reset(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newTestBreaker(t)

	for i := 0; i < 3; i++ {
		_ = b.Execute(ctx, fail)
	}
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Execute(ctx, succeed))
}

func TestBreaker_DefaultSettings(t *testing.T) {
	b := NewBreaker("pull", Settings{})
	assert.Equal(t, DefaultSettings(), b.settings)
	assert.Equal(t, "pull", b.Name())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

func TestGroup(t *testing.T) {
	ctx := context.Background()
	g := NewGroup(Settings{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Hour})

	assert.Same(t, g.Get(GroupPush), g.Get(GroupPush))

	_ = g.Execute(ctx, GroupPush, fail)
	assert.Equal(t, StateOpen, g.Get(GroupPush).State())

	// Группы независимы
	assert.NoError(t, g.Execute(ctx, GroupPull, succeed))

	snaps := g.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, GroupPull, snaps[0].Name)
	assert.Equal(t, StateOpen, snaps[1].State)

	g.ResetAll()
	assert.Equal(t, StateClosed, g.Get(GroupPush).State())
}
