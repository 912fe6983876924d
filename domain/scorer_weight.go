package domain

import "time"

type Phase string

const (
	PhaseCold Phase = "cold"
	PhaseWarm Phase = "warm"
	PhaseHot  Phase = "hot"
)

const (
	WarmPhaseStart = 30
	HotPhaseStart  = 100
)

// PhaseFor derives the confidence phase from an observation count.
func PhaseFor(observationCount int64) Phase {
	switch {
	case observationCount < WarmPhaseStart:
		return PhaseCold
	case observationCount < HotPhaseStart:
		return PhaseWarm
	default:
		return PhaseHot
	}
}

// ScorerWeightState is the learned weight of one scorer for one brand.
// The phase is never stored; it is always derived from ObservationCount.
type ScorerWeightState struct {
	BrandID          string    `gorm:"column:brand_id;primaryKey" json:"brand_id"`
	Scorer           string    `gorm:"column:scorer_name;primaryKey" json:"scorer_name"`
	StaticWeight     float64   `gorm:"column:static_weight;not null" json:"static_weight"`
	LearnedWeight    float64   `gorm:"column:learned_weight;not null" json:"learned_weight"`
	ObservationCount int64     `gorm:"column:observation_count;not null" json:"observation_count"`
	LastUpdate       time.Time `gorm:"column:last_update" json:"last_update"`
}

func (ScorerWeightState) TableName() string {
	return "scorer_weight_states"
}

func (s ScorerWeightState) Phase() Phase {
	return PhaseFor(s.ObservationCount)
}

// NewScorerWeightState starts a scorer at its static weight with no observations.
func NewScorerWeightState(brandID string, scorer Scorer) ScorerWeightState {
	return ScorerWeightState{
		BrandID:       brandID,
		Scorer:        scorer.String(),
		StaticWeight:  scorer.StaticWeight(),
		LearnedWeight: scorer.StaticWeight(),
	}
}

// ScorerWeightView is the audit row exposed per scorer.
type ScorerWeightView struct {
	Scorer           string    `json:"scorer_name"`
	Static           float64   `json:"static"`
	Learned          float64   `json:"learned"`
	Effective        float64   `json:"effective"`
	Phase            Phase     `json:"phase"`
	ObservationCount int64     `json:"observation_count"`
	LastUpdate       time.Time `json:"last_update"`
}
