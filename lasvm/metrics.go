// SPDX-License-Identifier: MIT

package lasvm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments updated by solvers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Steps     prometheus.Counter
	Shrunk    prometheus.Counter
	Unshrinks prometheus.Counter
	Evicted   prometheus.Counter
	Rejected  prometheus.Counter
	Gap       prometheus.Gauge
}

// NewMetrics creates the solver instruments and registers them with reg
// (nil reg: unregistered).
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Steps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lasvm", Name: "steps_total",
			Help: "Coordinate steps that changed a coefficient.",
		}),
		Shrunk: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lasvm", Name: "shrunk_total",
			Help: "Coordinates moved out of the active set.",
		}),
		Unshrinks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lasvm", Name: "unshrinks_total",
			Help: "Passes that reintroduced shrunk coordinates.",
		}),
		Evicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lasvm", Name: "evicted_total",
			Help: "Examples removed from the online working set.",
		}),
		Rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "lasvm", Name: "rejected_total",
			Help: "Examples refused by the online admission test.",
		}),
		Gap: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "lasvm", Name: "gap",
			Help: "Last extreme-gradient gap observed.",
		}),
	}
}

func (m *Metrics) step() {
	if m != nil {
		m.Steps.Inc()
	}
}

func (m *Metrics) shrunk(n int) {
	if m != nil && n > 0 {
		m.Shrunk.Add(float64(n))
	}
}

func (m *Metrics) unshrink() {
	if m != nil {
		m.Unshrinks.Inc()
	}
}

func (m *Metrics) evicted(n int) {
	if m != nil && n > 0 {
		m.Evicted.Add(float64(n))
	}
}

func (m *Metrics) rejected() {
	if m != nil {
		m.Rejected.Inc()
	}
}

func (m *Metrics) gap(v float64) {
	if m != nil {
		m.Gap.Set(v)
	}
}
