// Package telemetry holds Prometheus metrics for cart-level observability.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CartMetrics counts the cart operations a dashboard cares about. Eviction
// metrics matter most: eviction failures are absorbed by the merge path, so
// these counters are the only place they surface outside the logs.
type CartMetrics struct {
	// Merge outcomes
	MergesCompleted prometheus.Counter
	MergesEmpty     prometheus.Counter
	MergesFailed    *prometheus.CounterVec
	MergedLines     prometheus.Histogram

	// Eviction retry outcomes
	EvictionsSucceeded prometheus.Counter
	EvictionsExhausted prometheus.Counter
}

// NewCartMetrics creates and registers all cart metrics
func NewCartMetrics(namespace string) *CartMetrics {
	if namespace == "" {
		namespace = "cart"
	}

	subsystem := "business"

	return &CartMetrics{
		MergesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merges_completed_total",
			Help:      "Total login-time merges that folded at least one line",
		}),
		MergesEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merges_empty_total",
			Help:      "Total merges that found no guest cart to fold",
		}),
		MergesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merges_failed_total",
			Help:      "Total merges aborted before any durable write",
		}, []string{"reason"}), // reason: pricing, store, identity
		MergedLines: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "merged_lines",
			Help:      "Number of guest cart lines folded per merge",
			Buckets:   []float64{1, 2, 5, 10, 20},
		}),
		EvictionsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evictions_succeeded_total",
			Help:      "Total guest cart evictions that succeeded within the retry budget",
		}),
		EvictionsExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evictions_exhausted_total",
			Help:      "Total guest cart evictions abandoned after exhausting retries",
		}),
	}
}
