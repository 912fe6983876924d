package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_brand_runs_total",
			Help: "Count of weekly brand runs by outcome.",
		},
		[]string{"outcome"},
	)

	BatchRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_brand_run_duration_seconds",
		Help:    "Wall time of one brand's weekly run",
		Buckets: prometheus.ExponentialBuckets(0.05, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(BatchRunsTotal, BatchRunDuration)
}
