package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation
var (
	GenerationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litnotes_generation_requests_total",
			Help: "Text generation calls by provider, operation and outcome.",
		},
		[]string{"provider", "operation", "status"},
	)

	GenerationRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litnotes_generation_retries_total",
			Help: "Retried generation attempts by provider.",
		},
		[]string{"provider"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "litnotes_generation_duration_seconds",
			Help:    "Wall-clock time of generation calls including retries.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)
)

// Indexing and search
var (
	EmbeddingChunks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litnotes_embedding_chunks_total",
			Help: "Note chunks processed by the embedding pipeline.",
		},
		[]string{"status"},
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litnotes_search_requests_total",
			Help: "Semantic search requests by outcome.",
		},
		[]string{"status"},
	)
)

// HTTP
var (
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litnotes_api_requests_total",
			Help: "API requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "litnotes_api_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
