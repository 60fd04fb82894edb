// SPDX-License-Identifier: MIT

package kcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments updated by one or more caches.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RowHits       prometheus.Counter
	RowMisses     prometheus.Counter
	KernelEvals   prometheus.Counter
	BuddyHits     prometheus.Counter
	Evictions     prometheus.Counter
	ResidentBytes prometheus.Gauge
}

// NewMetrics creates the cache instruments and registers them with reg.
// A nil reg creates unregistered instruments, which is handy in tests.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RowHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kcache",
			Name:      "row_hits_total",
			Help:      "Row queries answered entirely from cached columns.",
		}),
		RowMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kcache",
			Name:      "row_misses_total",
			Help:      "Row queries that had to extend the row.",
		}),
		KernelEvals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kcache",
			Name:      "kernel_evaluations_total",
			Help:      "Calls into the kernel function.",
		}),
		BuddyHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kcache",
			Name:      "buddy_hits_total",
			Help:      "Kernel values served by a buddy cache.",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kcache",
			Name:      "evictions_total",
			Help:      "Rows dropped to honour the byte budget.",
		}),
		ResidentBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "kcache",
			Name:      "resident_bytes",
			Help:      "Bytes of cached row data.",
		}),
	}
}

func (m *Metrics) rowHit() {
	if m != nil {
		m.RowHits.Inc()
	}
}

func (m *Metrics) rowMiss() {
	if m != nil {
		m.RowMisses.Inc()
	}
}

func (m *Metrics) kernelEval() {
	if m != nil {
		m.KernelEvals.Inc()
	}
}

func (m *Metrics) buddyHit() {
	if m != nil {
		m.BuddyHits.Inc()
	}
}

func (m *Metrics) eviction() {
	if m != nil {
		m.Evictions.Inc()
	}
}

func (m *Metrics) resident(delta int64) {
	if m != nil && delta != 0 {
		m.ResidentBytes.Add(float64(delta))
	}
}
