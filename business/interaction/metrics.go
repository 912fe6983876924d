package interaction

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	InteractionPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_pairs_total",
			Help: "Count of element pairs handled by the interaction detector, by outcome.",
		},
		[]string{"outcome"},
	)

	InteractionRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "interaction_run_duration_seconds",
		Help:    "Wall time of one brand's interaction detection",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(InteractionPairsTotal, InteractionRunDuration)
}
