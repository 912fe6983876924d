package domain

import (
	"time"

	"github.com/google/uuid"
)

type Classification string

const (
	ClassificationSynergy  Classification = "synergy"
	ClassificationConflict Classification = "conflict"
	ClassificationNone     Classification = "none"
)

// InteractionEffect is recomputed wholesale on every weekly run. Element A
// always sorts before element B.
type InteractionEffect struct {
	ID                uint           `gorm:"primaryKey" json:"-"`
	RunID             uuid.UUID      `gorm:"column:run_id;type:uuid;not null" json:"run_id"`
	BrandID           string         `gorm:"column:brand_id;not null;index" json:"brand_id"`
	DimensionA        string         `gorm:"column:dimension_a;not null" json:"-"`
	ValueA            string         `gorm:"column:value_a;not null" json:"-"`
	DimensionB        string         `gorm:"column:dimension_b;not null" json:"-"`
	ValueB            string         `gorm:"column:value_b;not null" json:"-"`
	CoOccurrenceCount int            `gorm:"column:co_occurrence_count;not null" json:"co_occurrence_count"`
	ObservedAvgReward float64        `gorm:"column:observed_avg_reward;not null" json:"observed_avg_reward"`
	ExpectedAvgReward float64        `gorm:"column:expected_avg_reward;not null" json:"expected_avg_reward"`
	EffectSize        float64        `gorm:"column:effect_size;not null" json:"effect_size"`
	CILow             float64        `gorm:"column:ci_low;not null" json:"ci_low"`
	CIHigh            float64        `gorm:"column:ci_high;not null" json:"ci_high"`
	Classification    Classification `gorm:"column:classification;not null" json:"classification"`
	Surfaced          bool           `gorm:"column:surfaced;not null" json:"surfaced"`
	ComputedAt        time.Time      `gorm:"column:computed_at" json:"computed_at"`
}

func (InteractionEffect) TableName() string {
	return "interaction_effects"
}

func (e InteractionEffect) ElementA() ElementKey {
	return ElementKey{Dimension: e.DimensionA, Value: e.ValueA}
}

func (e InteractionEffect) ElementB() ElementKey {
	return ElementKey{Dimension: e.DimensionB, Value: e.ValueB}
}

// ElementPair is an unordered pair of elements stored in canonical order.
type ElementPair struct {
	A ElementKey
	B ElementKey
}

// NewElementPair orders a and b so that (a,b) and (b,a) produce the same pair.
func NewElementPair(a, b ElementKey) ElementPair {
	if b.Less(a) {
		a, b = b, a
	}
	return ElementPair{A: a, B: b}
}

func (e InteractionEffect) Pair() ElementPair {
	return ElementPair{A: e.ElementA(), B: e.ElementB()}
}

// InteractionView is the display row for an interaction effect.
type InteractionView struct {
	ElementA          ElementKey     `json:"element_a"`
	ElementB          ElementKey     `json:"element_b"`
	CoOccurrenceCount int            `json:"co_occurrence_count"`
	EffectSize        float64        `json:"effect_size"`
	CILow             float64        `json:"ci_low"`
	CIHigh            float64        `json:"ci_high"`
	Classification    Classification `json:"classification"`
}

func (e InteractionEffect) View() InteractionView {
	return InteractionView{
		ElementA:          e.ElementA(),
		ElementB:          e.ElementB(),
		CoOccurrenceCount: e.CoOccurrenceCount,
		EffectSize:        e.EffectSize,
		CILow:             e.CILow,
		CIHigh:            e.CIHigh,
		Classification:    e.Classification,
	}
}

// WhitespaceCandidate is advisory output; it is never treated as authoritative state.
type WhitespaceCandidate struct {
	BrandID            string     `json:"brand_id"`
	ElementA           ElementKey `json:"element_a"`
	ElementB           ElementKey `json:"element_b"`
	MeanA              float64    `json:"mean_a"`
	MeanB              float64    `json:"mean_b"`
	SynergyBonus       float64    `json:"synergy_bonus"`
	NoveltyBonus       float64    `json:"novelty_bonus"`
	PredictedPotential float64    `json:"predicted_potential"`
	UsageCount         int        `json:"usage_count"`
}
