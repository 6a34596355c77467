package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes cache activity as Prometheus collectors.
// All methods are no-ops on a nil *Metrics.
type Metrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
	Entries   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "daisy",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Resource lookups answered from the cache.",
		}),
		Misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "daisy",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Resource lookups not found in the cache.",
		}),
		Evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "daisy",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries dropped to respect the cache capacity.",
		}),
		Entries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "daisy",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held.",
		}),
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) evicted() {
	if m != nil {
		m.Evictions.Inc()
	}
}

func (m *Metrics) setEntries(n int) {
	if m != nil {
		m.Entries.Set(float64(n))
	}
}
