// Package metrics exposes Prometheus instruments for shift writes and live snapshots.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Write outcomes
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Metrics holds the instruments on a private registry
type Metrics struct {
	registry        *prometheus.Registry
	shiftWrites     *prometheus.CounterVec
	snapshots       prometheus.Counter
	snapshotErrors  prometheus.Counter
	snapshotShifts  prometheus.Gauge
	conflictedSlots prometheus.Gauge
}

// New creates and registers all instruments
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		shiftWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "point_rota",
			Name:      "shift_writes_total",
			Help:      "Shift writes by operation and result.",
		}, []string{"op", "result"}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "point_rota",
			Name:      "snapshots_total",
			Help:      "Shift snapshots delivered to subscribers.",
		}),
		snapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "point_rota",
			Name:      "snapshot_errors_total",
			Help:      "Failed snapshot reloads; the previous snapshot was kept.",
		}),
		snapshotShifts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "point_rota",
			Name:      "snapshot_shifts",
			Help:      "Number of shifts in the latest snapshot.",
		}),
		conflictedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "point_rota",
			Name:      "conflicted_slots",
			Help:      "Hour slots covered by more than one shift in the displayed week.",
		}),
	}

	m.registry.MustRegister(
		m.shiftWrites,
		m.snapshots,
		m.snapshotErrors,
		m.snapshotShifts,
		m.conflictedSlots,
	)

	return m
}

// ShiftWrite counts one write attempt
func (m *Metrics) ShiftWrite(op, result string) {
	if m == nil {
		return
	}
	m.shiftWrites.WithLabelValues(op, result).Inc()
}

// Snapshot records a delivered snapshot and its size
func (m *Metrics) Snapshot(size int) {
	if m == nil {
		return
	}
	m.snapshots.Inc()
	m.snapshotShifts.Set(float64(size))
}

// SnapshotError counts a failed reload
func (m *Metrics) SnapshotError() {
	if m == nil {
		return
	}
	m.snapshotErrors.Inc()
}

// ConflictedSlots sets the number of contended slots in the displayed week
func (m *Metrics) ConflictedSlots(n int) {
	if m == nil {
		return
	}
	m.conflictedSlots.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
