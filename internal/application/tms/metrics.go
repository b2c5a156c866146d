package tms

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Mutation outcomes reported by CoordinatorMetrics
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// CoordinatorMetrics provides Prometheus metrics for optimistic mutations.
// All methods are nil-safe: calls on a nil *CoordinatorMetrics are no-ops.
type CoordinatorMetrics struct {
	// MutationsTotal counts finished mutations by operation and outcome
	MutationsTotal *prometheus.CounterVec

	// RollbacksTotal counts local state restorations by operation
	RollbacksTotal *prometheus.CounterVec

	// PersistSeconds observes how long persistence took
	PersistSeconds *prometheus.HistogramVec

	// InFlight tracks mutations applied locally but not yet persisted
	InFlight prometheus.Gauge
}

// NewCoordinatorMetrics creates and registers the metrics with reg.
// A nil reg leaves them unregistered, which is what tests want.
func NewCoordinatorMetrics(reg prometheus.Registerer) *CoordinatorMetrics {
	m := &CoordinatorMetrics{
		MutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "optimistic",
			Name:      "mutations_total",
			Help:      "Optimistic mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		RollbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "optimistic",
			Name:      "rollbacks_total",
			Help:      "Local state rollbacks after a failed persist",
		}, []string{"op"}),
		PersistSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tms",
			Subsystem: "optimistic",
			Name:      "persist_seconds",
			Help:      "Time spent persisting an optimistic mutation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tms",
			Subsystem: "optimistic",
			Name:      "in_flight",
			Help:      "Mutations applied locally and awaiting persistence",
		}),
	}

	if reg != nil {
		collectors := []prometheus.Collector{
			m.MutationsTotal,
			m.RollbacksTotal,
			m.PersistSeconds,
			m.InFlight,
		}
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	}
	return m
}

func (m *CoordinatorMetrics) started() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *CoordinatorMetrics) finished(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	m.PersistSeconds.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.MutationsTotal.WithLabelValues(op, OutcomeRolledBack).Inc()
		m.RollbacksTotal.WithLabelValues(op).Inc()
		return
	}
	m.MutationsTotal.WithLabelValues(op, OutcomeCommitted).Inc()
}
