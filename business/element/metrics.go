package element

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ElementOutcomesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "element_outcomes_recorded_total",
			Help: "Count of rewards folded into element posteriors.",
		},
	)

	ElementOutcomesSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "element_outcomes_skipped_total",
			Help: "Count of reward outcomes skipped because the element already holds them.",
		},
	)

	ElementConflictRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "element_outcome_conflict_retries_total",
			Help: "Count of record_outcome attempts retried after a concurrent write.",
		},
	)
)

func init() {
	prometheus.MustRegister(ElementOutcomesTotal, ElementOutcomesSkippedTotal, ElementConflictRetriesTotal)
}
