package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal tracks top-level resolutions by outcome
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_resolutions_total",
			Help: "Total number of resolutions",
		},
		[]string{"kind", "mode", "outcome"},
	)

	// SourceAttemptsTotal tracks adapter invocations
	SourceAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_source_attempts_total",
			Help: "Total number of source adapter attempts",
		},
		[]string{"source", "kind", "outcome"},
	)

	// SourceFailuresTotal tracks adapter failures per category
	SourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_source_failures_total",
			Help: "Total number of source adapter failures",
		},
		[]string{"source", "category"},
	)

	// HTTPRequestsTotal tracks outbound HTTP attempts
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_http_requests_total",
			Help: "Total number of outbound HTTP attempts",
		},
		[]string{"route", "status"},
	)

	// HTTPLatency tracks outbound HTTP latency
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tikwatch_http_latency_seconds",
			Help:    "Outbound HTTP latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// RateLimitWait tracks how long callers were held by the rate limiter
	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tikwatch_rate_limit_wait_seconds",
			Help:    "Time spent waiting for the global rate limiter",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// CacheLookupsTotal tracks profile cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_cache_lookups_total",
			Help: "Total number of profile cache lookups",
		},
		[]string{"backend", "result"},
	)

	// LiveViewers tracks the latest observed viewer count
	LiveViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tikwatch_live_viewers",
			Help: "Latest observed live viewer count",
		},
		[]string{"user", "provenance"},
	)

	// LiveLikes tracks the latest observed cumulative like count
	LiveLikes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tikwatch_live_likes",
			Help: "Latest observed cumulative live likes",
		},
		[]string{"user", "provenance"},
	)

	// PollTicksTotal tracks poller ticks by outcome
	PollTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_poll_ticks_total",
			Help: "Total number of live poll ticks",
		},
		[]string{"outcome"},
	)

	// HTTPServerRequestsTotal tracks requests served by the status server
	HTTPServerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tikwatch_server_requests_total",
			Help: "Total number of requests served by the status server",
		},
		[]string{"route", "code"},
	)
)
