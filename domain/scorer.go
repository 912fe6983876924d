package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Scorer is one of the eight template scoring criteria. The set is closed.
type Scorer int

const (
	ScorerAssetMatch Scorer = iota
	ScorerCategoryMatch
	ScorerAwarenessAlign
	ScorerAudienceMatch
	ScorerPerformance
	ScorerBeliefClarity
	ScorerFatigue
	ScorerUnusedBonus

	NumScorers = 8
)

var scorerNames = [NumScorers]string{
	"asset_match",
	"category_match",
	"awareness_align",
	"audience_match",
	"performance",
	"belief_clarity",
	"fatigue",
	"unused_bonus",
}

// static weights used until a brand has enough observations to learn its own
var scorerStaticWeights = [NumScorers]float64{
	1.2, // asset_match
	1.0, // category_match
	0.8, // awareness_align
	1.0, // audience_match
	1.2, // performance
	0.8, // belief_clarity
	0.6, // fatigue
	0.4, // unused_bonus
}

func (s Scorer) String() string {
	if s < 0 || int(s) >= NumScorers {
		return "unknown"
	}
	return scorerNames[s]
}

func (s Scorer) StaticWeight() float64 {
	if s < 0 || int(s) >= NumScorers {
		return 0
	}
	return scorerStaticWeights[s]
}

func ParseScorer(name string) (Scorer, bool) {
	for i, n := range scorerNames {
		if n == name {
			return Scorer(i), true
		}
	}
	return 0, false
}

func AllScorers() []Scorer {
	out := make([]Scorer, NumScorers)
	for i := range NumScorers {
		out[i] = Scorer(i)
	}
	return out
}

// ScoreVector holds one value per scorer, indexed by Scorer.
type ScoreVector [NumScorers]float64

func StaticWeights() ScoreVector {
	return ScoreVector(scorerStaticWeights)
}

func (v ScoreVector) Slice() []float64 {
	out := make([]float64, NumScorers)
	copy(out, v[:])
	return out
}

// ScoreVectorFromSlice copies up to NumScorers values; missing entries stay zero.
func ScoreVectorFromSlice(in []float64) ScoreVector {
	var v ScoreVector
	copy(v[:], in)
	return v
}

// ScoreVectorFromMap reads a scorer-name keyed map; unknown names are ignored.
func ScoreVectorFromMap(in map[string]float64) ScoreVector {
	var v ScoreVector
	for name, val := range in {
		if s, ok := ParseScorer(name); ok {
			v[s] = val
		}
	}
	return v
}

func (v ScoreVector) Map() map[string]float64 {
	out := make(map[string]float64, NumScorers)
	for i, val := range v {
		out[scorerNames[i]] = val
	}
	return out
}

// ScorerObservation is recorded when a template is selected and completed
// once the resulting ad has a reward.
type ScorerObservation struct {
	ID          uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BrandID     string                       `gorm:"column:brand_id;not null;index" json:"brand_id"`
	TemplateID  string                       `gorm:"column:template_id;not null" json:"template_id"`
	RawScores   datatypes.JSONSlice[float64] `gorm:"column:raw_scores" json:"raw_scores"`
	WeightsUsed datatypes.JSONSlice[float64] `gorm:"column:weights_used" json:"weights_used"`
	AdID        *string                      `gorm:"column:ad_id" json:"ad_id,omitempty"`
	Reward      *float64                     `gorm:"column:reward" json:"reward,omitempty"`
	RewardedAt  *time.Time                   `gorm:"column:rewarded_at" json:"rewarded_at,omitempty"`
	CreatedAt   time.Time                    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ScorerObservation) TableName() string {
	return "scorer_observations"
}

func (o ScorerObservation) Scores() ScoreVector {
	return ScoreVectorFromSlice(o.RawScores)
}

// TemplateCandidate carries the raw criterion scores supplied by the
// template metadata services.
type TemplateCandidate struct {
	TemplateID string      `json:"template_id"`
	RawScores  ScoreVector `json:"-"`
}

type RankedTemplate struct {
	TemplateID string             `json:"template_id"`
	TotalScore float64            `json:"total_score"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
}

type Ranking struct {
	BrandID       string             `json:"brand_id"`
	Templates     []RankedTemplate   `json:"templates"`
	WeightsUsed   map[string]float64 `json:"weights_used"`
	ObservationID *uuid.UUID         `json:"observation_id,omitempty"`
}
