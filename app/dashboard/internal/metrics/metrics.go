// Package metrics provides Prometheus metrics for the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoadTotal counts pipeline loads by status (ok, degraded, failed).
	LoadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "load_total",
			Help:      "Total number of dashboard loads",
		},
		[]string{"status"},
	)

	// LoadDuration measures how long a full load takes.
	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "load_duration_seconds",
			Help:      "Duration of dashboard loads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// MutationTotal counts save, unsave and delete writes.
	MutationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "mutation_total",
			Help:      "Total number of mutations",
		},
		[]string{"action", "kind", "status"},
	)

	// Cards is the number of cards produced by the last load.
	Cards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "cards",
			Help:      "Number of cards produced by the last load",
		},
	)
)

// RecordLoad records a pipeline load.
func RecordLoad(status string, seconds float64) {
	LoadTotal.WithLabelValues(status).Inc()
	LoadDuration.Observe(seconds)
}

// RecordMutation records a save, unsave or delete write.
func RecordMutation(action, kind string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	MutationTotal.WithLabelValues(action, kind, status).Inc()
}
