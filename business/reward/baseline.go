package reward

import (
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/stats"
)

// Metric names one of the three normalised performance metrics.
type Metric int

const (
	MetricCTR Metric = iota
	MetricConvRate
	MetricROAS
)

func (m Metric) String() string {
	switch m {
	case MetricCTR:
		return "ctr"
	case MetricConvRate:
		return "conv_rate"
	case MetricROAS:
		return "roas"
	default:
		return "unknown"
	}
}

// Value extracts the raw metric from an ad's running totals.
func (m Metric) Value(rec domain.AdPerformanceRecord) float64 {
	switch m {
	case MetricCTR:
		return rec.CTR()
	case MetricConvRate:
		return rec.ConversionRate()
	case MetricROAS:
		return rec.ROAS()
	default:
		return 0
	}
}

// Baseline is the interquartile range of a brand's history for one metric.
type Baseline struct {
	P25     float64 `json:"p25"`
	P75     float64 `json:"p75"`
	Samples int     `json:"samples"`
}

func NewBaseline(values []float64) Baseline {
	sorted := stats.SortedCopy(values)
	return Baseline{
		P25:     stats.Percentile(sorted, 25),
		P75:     stats.Percentile(sorted, 75),
		Samples: len(sorted),
	}
}

// Degenerate is true when the spread is zero and no scale can be inferred.
func (b Baseline) Degenerate() bool {
	return b.P75 == b.P25
}

// Normalize maps x into [0,1] relative to the interquartile range. A
// degenerate baseline normalises everything to 0.5.
func (b Baseline) Normalize(x float64) float64 {
	if b.Degenerate() {
		return 0.5
	}
	return stats.Clamp((x-b.P25)/(b.P75-b.P25), 0, 1)
}
