package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Latency of the template ranking HTTP handler
	RankingLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "creative_ranking_latency_seconds",
		Help:    "Latency of template ranking handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of ranking requests served, by whether an observation was recorded
	RankingRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "creative_ranking_requests_total",
		Help: "Total number of template ranking requests",
	}, []string{"recorded"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP requests by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

var once sync.Once

// Init registers the HTTP-level collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RankingLatency,
			RankingRequests,
			HTTPRequestDuration,
		)
	})
}
