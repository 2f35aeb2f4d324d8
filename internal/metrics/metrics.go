package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mingle_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mingle_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	AgentsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mingle_agents_registered_total",
			Help: "Total agents registered",
		},
	)

	SwipesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mingle_swipes_total",
			Help: "Total swipes recorded",
		},
		[]string{"direction"},
	)

	MatchesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mingle_matches_total",
			Help: "Total mutual matches created",
		},
	)

	PersonasGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mingle_personas_generated_total",
			Help: "Total persona generations",
		},
		[]string{"outcome"}, // "generated" or "fallback"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mingle_rate_limit_hits_total",
			Help: "Total rate limit rejections",
		},
		[]string{"limit_type"},
	)
)
