// Package resilience gates network round-trips behind circuit breakers.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call without attempting it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the state of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Settings configure a breaker.
type Settings struct {
	FailureThreshold int           // подряд неудач в CLOSED до перехода в OPEN
	SuccessThreshold int           // подряд успехов в HALF_OPEN до перехода в CLOSED
	Timeout          time.Duration // время в OPEN до пробного вызова
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	NextAttemptTime time.Time
	Name            string
	State           State
	FailureCount    int
	SuccessCount    int
}

// StateChangeFunc is called after every transition, outside the breaker lock.
type StateChangeFunc func(name string, from, to State)

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithStateChange registers a transition callback.
func WithStateChange(fn StateChangeFunc) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// Breaker implements the CLOSED -> OPEN -> HALF_OPEN -> CLOSED state machine.
// It is safe for concurrent use.
type Breaker struct {
	nextAttemptTime time.Time
	now             func() time.Time
	onChange        StateChangeFunc
	name            string
	settings        Settings
	state           State
	failureCount    int
	successCount    int
	probing         bool // в HALF_OPEN одновременно выполняется не больше одного вызова
	mu              sync.Mutex
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, settings Settings, opts ...Option) *Breaker {
	def := DefaultSettings()
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = def.FailureThreshold
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = def.SuccessThreshold
	}
	if settings.Timeout <= 0 {
		settings.Timeout = def.Timeout
	}

	b := &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the endpoint group guarded by the breaker.
func (b *Breaker) Name() string {
	return b.name
}

// Execute runs op if the breaker allows it and records the outcome.
// A nil error is a success. Cancellation of ctx is neither a success nor a
// failure: the server was not observed.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	transition, allowed := b.allow()
	b.notify(transition)
	if !allowed {
		return ErrCircuitOpen
	}

	err := op(ctx)

	b.notify(b.record(err))

	return err
}

type transition struct {
	from, to State
	changed  bool
}

func (b *Breaker) setStateLocked(to State) transition {
	t := transition{from: b.state, to: to, changed: b.state != to}
	b.state = to
	return t
}

func (b *Breaker) notify(t transition) {
	if t.changed && b.onChange != nil {
		b.onChange(b.name, t.from, t.to)
	}
}

func (b *Breaker) allow() (transition, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Before(b.nextAttemptTime) {
			return transition{}, false
		}
		// Таймаут истёк: следующий вызов становится пробным
		t := b.setStateLocked(StateHalfOpen)
		b.successCount = 0
		b.probing = true
		return t, true

	case StateHalfOpen:
		if b.probing {
			return transition{}, false
		}
		b.probing = true
		return transition{}, true

	default:
		return transition{}, true
	}
}

func (b *Breaker) record(err error) transition {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.state == StateHalfOpen
	if wasProbe {
		b.probing = false
	}

	// Отменённый вызов не наблюдал сервер; таймаут же считается неудачей
	if errors.Is(err, context.Canceled) {
		return transition{}
	}

	if err == nil {
		return b.onSuccessLocked()
	}
	return b.onFailureLocked()
}

func (b *Breaker) onSuccessLocked() transition {
	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.settings.SuccessThreshold {
			b.failureCount = 0
			b.successCount = 0
			return b.setStateLocked(StateClosed)
		}
	case StateClosed:
		b.failureCount = 0
	}
	return transition{}
}

func (b *Breaker) onFailureLocked() transition {
	switch b.state {
	case StateHalfOpen:
		// Любая неудача пробного вызова снова открывает цепь
		b.successCount = 0
		b.nextAttemptTime = b.now().Add(b.settings.Timeout)
		return b.setStateLocked(StateOpen)

	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.settings.FailureThreshold {
			b.nextAttemptTime = b.now().Add(b.settings.Timeout)
			return b.setStateLocked(StateOpen)
		}
	}
	return transition{}
}

// State returns the current state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allows reports whether a call would be attempted now, without reserving it.
func (b *Breaker) Allows() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		return !b.now().Before(b.nextAttemptTime)
	case StateHalfOpen:
		return !b.probing
	default:
		return true
	}
}

// Snapshot returns the counters of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Name:            b.name,
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		NextAttemptTime: b.nextAttemptTime,
	}
}

// Reset closes the breaker and clears its counters (operator action).
func (b *Breaker) Reset() {
	b.mu.Lock()
	t := b.setStateLocked(StateClosed)
	b.failureCount = 0
	b.successCount = 0
	b.probing = false
	b.nextAttemptTime = time.Time{}
	b.mu.Unlock()

	b.notify(t)
}
