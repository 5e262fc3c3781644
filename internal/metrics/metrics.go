// Package metrics defines the prometheus collectors of the settlement engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kashta"

// Recompute modes.
const (
	ModeReconcile = "reconcile"
	ModeReadOnly  = "readonly"
)

// Reconcile change kinds.
const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// Metrics holds the settlement collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	recomputes      *prometheus.CounterVec
	duration        prometheus.Histogram
	toggles         *prometheus.CounterVec
	reconcileChange *prometheus.CounterVec
	auditFailures   prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recomputes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "recomputes_total",
			Help:      "Number of event settlement computations.",
		}, []string{"mode"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "recompute_duration_seconds",
			Help:      "Time spent computing one event settlement, including storage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		toggles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "toggles_total",
			Help:      "Number of transfer paid/unpaid toggles.",
		}, []string{"action"}),
		reconcileChange: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "reconcile_changes_total",
			Help:      "Settlement record rows written by reconciliation.",
		}, []string{"kind"}),
		auditFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "audit_failures_total",
			Help:      "Activity log appends or publishes that failed after a toggle.",
		}),
	}
}

// ObserveRecompute records one settlement computation.
func (m *Metrics) ObserveRecompute(mode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(mode).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// AddReconcileChanges records the rows written by one reconciliation.
func (m *Metrics) AddReconcileChanges(inserts, updates, deletes int) {
	if m == nil {
		return
	}
	m.reconcileChange.WithLabelValues(ChangeInsert).Add(float64(inserts))
	m.reconcileChange.WithLabelValues(ChangeUpdate).Add(float64(updates))
	m.reconcileChange.WithLabelValues(ChangeDelete).Add(float64(deletes))
}

// IncToggle records one toggle with its resulting action.
func (m *Metrics) IncToggle(action string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(action).Inc()
}

// IncAuditFailure records a failed best-effort audit step.
func (m *Metrics) IncAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}
