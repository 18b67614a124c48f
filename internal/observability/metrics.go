package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playshelf_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playshelf_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheRequests counts cache-aside lookups by key namespace and result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playshelf_cache_requests_total",
		Help: "Cache-aside lookups by namespace and result (hit/miss)",
	}, []string{"namespace", "result"})

	// OutboundRequests counts calls to Discord and IGDB by outcome.
	OutboundRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playshelf_outbound_requests_total",
		Help: "Calls to third-party APIs by provider, operation and outcome",
	}, []string{"provider", "operation", "outcome"})

	// OutboundLatency records third-party API latency.
	OutboundLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playshelf_outbound_latency_seconds",
		Help:    "Third-party API call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// LoginOutcomes counts OAuth callback results by redirect error code ("ok" on success).
	LoginOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playshelf_login_outcomes_total",
		Help: "Discord OAuth callback outcomes",
	}, []string{"outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveOutbound records the outcome and latency of a third-party call.
func ObserveOutbound(provider, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OutboundRequests.WithLabelValues(provider, operation, outcome).Inc()
	OutboundLatency.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}
