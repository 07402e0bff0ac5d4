// Package metrics exposes sync health of the device as Prometheus metrics.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/posync/internal/client/resilience"
)

const namespace = "posync"

// Event outcomes counted by AddEvents
const (
	OutcomePushed     = "pushed"
	OutcomeAccepted   = "accepted"
	OutcomeFailed     = "failed"
	OutcomeConflicted = "conflicted"
	OutcomeSkipped    = "skipped"
	OutcomeAmbiguous  = "ambiguous"
	OutcomePulled     = "pulled"
	OutcomeApplied    = "applied"
)

// Round outcomes
const (
	RoundOK      = "ok"
	RoundPartial = "partial"
	RoundFailed  = "failed"
	RoundOffline = "offline"
)

// Sync holds the collectors of one device process. Collectors live on a
// private registry so tests can build as many instances as they need.
// A nil *Sync is valid and records nothing.
type Sync struct {
	registry      *prometheus.Registry
	pending       prometheus.Gauge
	failed        prometheus.Gauge
	openConflicts prometheus.Gauge
	breakerState  *prometheus.GaugeVec
	events        *prometheus.CounterVec
	rounds        *prometheus.CounterVec
	divergences   prometheus.Counter
	roundDuration prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Sync {
	s := &Sync{
		registry: prometheus.NewRegistry(),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending_events",
			Help:      "Events waiting for delivery",
		}),
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_failed_events",
			Help:      "Events rejected by validation",
		}),
		openConflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_conflicts",
			Help:      "Conflicts waiting for the operator",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per endpoint group (0 closed, 1 open, 2 half-open)",
		}, []string{"group"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_events_total",
			Help:      "Events handled by sync rounds by outcome",
		}, []string{"outcome"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_rounds_total",
			Help:      "Sync rounds by outcome",
		}, []string{"outcome"}),
		divergences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_divergences_total",
			Help:      "Pulled events concurrent with a local pending event on the same entity",
		}),
		roundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_round_duration_seconds",
			Help:      "Duration of sync rounds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
	}

	s.registry.MustRegister(
		s.pending,
		s.failed,
		s.openConflicts,
		s.breakerState,
		s.events,
		s.rounds,
		s.divergences,
		s.roundDuration,
	)
	return s
}

// Registry returns the registry holding the collectors.
func (s *Sync) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the collectors in the Prometheus text format.
func (s *Sync) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// SetQueue updates the outbox gauges.
func (s *Sync) SetQueue(pending, failed, openConflicts int) {
	if s == nil {
		return
	}
	s.pending.Set(float64(pending))
	s.failed.Set(float64(failed))
	s.openConflicts.Set(float64(openConflicts))
}

// AddEvents adds n to the counter of the outcome.
func (s *Sync) AddEvents(outcome string, n int) {
	if s == nil || n <= 0 {
		return
	}
	s.events.WithLabelValues(outcome).Add(float64(n))
}

// ObserveRound records a finished round.
func (s *Sync) ObserveRound(outcome string, d time.Duration) {
	if s == nil {
		return
	}
	s.rounds.WithLabelValues(outcome).Inc()
	s.roundDuration.Observe(d.Seconds())
}

// IncDivergence counts one locally inferred divergence.
func (s *Sync) IncDivergence() {
	if s == nil {
		return
	}
	s.divergences.Inc()
}

// SetBreakerState records the state of a breaker group.
func (s *Sync) SetBreakerState(group string, state resilience.State) {
	if s == nil {
		return
	}
	s.breakerState.WithLabelValues(group).Set(float64(state))
}

// BreakerObserver returns a state-change callback that logs transitions and
// keeps the breaker gauge current.
func (s *Sync) BreakerObserver(logger *slog.Logger) resilience.StateChangeFunc {
	return func(name string, from, to resilience.State) {
		logger.Info("Circuit breaker state changed",
			"group", name,
			"from", from.String(),
			"to", to.String())
		s.SetBreakerState(name, to)
	}
}
