package transfer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var TransfersAppliedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "brand_transfers_applied_total",
		Help: "Count of cross-brand element transfers committed.",
	},
)

func init() {
	prometheus.MustRegister(TransfersAppliedTotal)
}
