package reward

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RewardsComputedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creative_rewards_computed_total",
			Help: "Count of composite rewards written, by campaign objective.",
		},
		[]string{"objective"},
	)

	RewardValue = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "creative_reward_value",
		Help:    "Distribution of composite reward values.",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})
)

func init() {
	prometheus.MustRegister(RewardsComputedTotal, RewardValue)
}
