// Package metrics provides Prometheus instrumentation for the client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aurity_scribe_client"

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	// Transport metrics
	Requests       *prometheus.CounterVec
	RequestRetries prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Polling metrics
	PollTicks   prometheus.Counter
	PollsActive prometheus.Gauge
	PollOutcome *prometheus.CounterVec
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all client metrics.
func New() *Metrics {
	return &Metrics{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total HTTP requests by method and outcome",
		}, []string{"method", "outcome"}),
		RequestRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_retries_total",
			Help:      "Total retry attempts after transient failures",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total reads served from the TTL fallback cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total cache reads that found no live entry",
		}),
		PollTicks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Total polling ticks issued across all subscriptions",
		}),
		PollsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "polls_active",
			Help:      "Number of currently running poll subscriptions",
		}),
		PollOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_outcomes_total",
			Help:      "Terminal poll outcomes by reason",
		}, []string{"reason"}),
	}
}
