package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VotesTotal counts committed votes by ledger action (create, toggle_off, flip).
	VotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foros_votes_total",
		Help: "Total number of committed votes by action",
	}, []string{"action"})

	// VoteConflicts counts optimistic concurrency conflicts hit by vote attempts.
	VoteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foros_vote_conflicts_total",
		Help: "Total number of vote attempts rejected by a concurrent write",
	})

	// VoteRetryExhausted counts votes that gave up after the last attempt conflicted.
	VoteRetryExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foros_vote_retry_exhausted_total",
		Help: "Total number of votes that exhausted their retry budget",
	})

	// VoteAttempts records how many attempts each finished vote needed.
	VoteAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "foros_vote_attempts",
		Help:    "Attempts needed per vote",
		Buckets: []float64{1, 2, 3, 5, 8},
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foros_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketBackpressureDrops counts messages dropped for slow or closed sockets.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foros_websocket_backpressure_drops_total",
		Help: "Messages dropped because a client buffer was full or closed",
	}, []string{"hub", "reason"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foros_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
