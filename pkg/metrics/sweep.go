package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics records metadata for background sweeps (cart idle eviction,
// toast expiry).
type SweepMetrics struct {
	duration *prometheus.HistogramVec
	removed  *prometheus.CounterVec
}

// NewSweepMetrics registers the sweep metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of background sweeps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"sweep"})
	removed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_removed_total",
		Help: "Entries removed by background sweeps.",
	}, []string{"sweep"})
	reg.MustRegister(duration, removed)
	return &SweepMetrics{
		duration: duration,
		removed:  removed,
	}
}

// ObserveSweep records one completed sweep pass.
func (m *SweepMetrics) ObserveSweep(sweep string, removed int, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	sweep = normalizeLabel(sweep)
	m.duration.WithLabelValues(sweep).Observe(elapsed.Seconds())
	if removed > 0 {
		m.removed.WithLabelValues(sweep).Add(float64(removed))
	}
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
