package syncqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's prometheus collectors.
type Metrics struct {
	attempts    *prometheus.CounterVec
	items       *prometheus.GaugeVec
	runDuration prometheus.Histogram
	running     prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg yields working but
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labkeeper",
			Subsystem: "sync",
			Name:      "attempts_total",
			Help:      "Remote sync attempts by result.",
		}, []string{"result"}),
		items: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "labkeeper",
			Subsystem: "sync",
			Name:      "queue_items",
			Help:      "Change records in the queue by status.",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "labkeeper",
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "labkeeper",
			Subsystem: "sync",
			Name:      "running",
			Help:      "1 while a sync run is in flight.",
		}),
	}
}

func (m *Metrics) observeCounts(s Summary) {
	m.items.WithLabelValues("pending").Set(float64(s.Pending))
	m.items.WithLabelValues("failed").Set(float64(s.Failed))
	m.items.WithLabelValues("synced").Set(float64(s.Synced))
}
