package reward

import (
	"fmt"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/stats"
)

// ObjectiveWeights is the CTR / conversion / ROAS blend for a campaign objective.
type ObjectiveWeights struct {
	CTR  float64 `json:"ctr"`
	Conv float64 `json:"conv"`
	ROAS float64 `json:"roas"`
}

var objectiveWeights = map[domain.CampaignObjective]ObjectiveWeights{
	domain.ObjectiveConversions: {CTR: 0.20, Conv: 0.50, ROAS: 0.30},
	domain.ObjectiveSales:       {CTR: 0.20, Conv: 0.30, ROAS: 0.50},
	domain.ObjectiveTraffic:     {CTR: 0.60, Conv: 0.20, ROAS: 0.20},
	domain.ObjectiveAwareness:   {CTR: 0.70, Conv: 0.10, ROAS: 0.20},
}

func WeightsFor(objective domain.CampaignObjective) (ObjectiveWeights, bool) {
	w, ok := objectiveWeights[objective]
	return w, ok
}

// Composite blends normalised metrics into one reward in [0,1].
func Composite(objective domain.CampaignObjective, ctr, conv, roas float64) (float64, error) {
	w, ok := WeightsFor(objective)
	if !ok {
		return 0, fmt.Errorf("%w: unknown campaign objective %q", domain.ErrInvalidInput, objective)
	}
	return stats.Clamp(w.CTR*ctr+w.Conv*conv+w.ROAS*roas, 0, 1), nil
}
