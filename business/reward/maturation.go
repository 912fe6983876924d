package reward

import (
	"time"

	"adaptiveCreative/domain"
)

// Each metric becomes trustworthy after its own age and impression gate.
const (
	minImpressions = 500
	ctrMinDays     = 3
	convMinDays    = 7
	roasMinDays    = 10
)

// applyMaturation flips the readiness flags whose gate is now satisfied and
// stamps the time of the first flip. Flags never flip back. It reports
// whether this call completed maturation (the last flag flipped now).
func applyMaturation(rec *domain.AdPerformanceRecord, now time.Time) bool {
	wasMatured := rec.Matured()

	enoughImpressions := rec.Impressions >= minImpressions

	if !rec.CtrReady && enoughImpressions && rec.AgeDays >= ctrMinDays {
		rec.CtrReady = true
		rec.CtrReadyAt = &now
	}
	if !rec.ConvReady && enoughImpressions && rec.AgeDays >= convMinDays {
		rec.ConvReady = true
		rec.ConvReadyAt = &now
	}
	if !rec.RoasReady && enoughImpressions && rec.AgeDays >= roasMinDays {
		rec.RoasReady = true
		rec.RoasReadyAt = &now
	}

	return !wasMatured && rec.Matured()
}
