package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ElementKey identifies a creative attribute value inside a brand,
// e.g. dimension=template_category, value=quote_card.
type ElementKey struct {
	Dimension string `json:"dimension" validate:"required"`
	Value     string `json:"value" validate:"required"`
}

func (k ElementKey) String() string {
	return fmt.Sprintf("%s=%s", k.Dimension, k.Value)
}

// Less orders keys by dimension, then value.
func (k ElementKey) Less(o ElementKey) bool {
	if k.Dimension != o.Dimension {
		return k.Dimension < o.Dimension
	}
	return k.Value < o.Value
}

const (
	ElementPriorAlpha = 1.0
	ElementPriorBeta  = 1.0
)

// CREATE TABLE creative_elements (
//     brand_id          TEXT NOT NULL,
//     dimension         TEXT NOT NULL,
//     value             TEXT NOT NULL,
//     alpha             DOUBLE PRECISION NOT NULL DEFAULT 1,
//     beta              DOUBLE PRECISION NOT NULL DEFAULT 1,
//     observation_count BIGINT NOT NULL DEFAULT 0,
//     version           BIGINT NOT NULL DEFAULT 0,
//     last_updated      TIMESTAMPTZ,
//     PRIMARY KEY (brand_id, dimension, value)
// );

// CreativeElement is the Beta posterior kept for one element of one brand.
type CreativeElement struct {
	BrandID          string    `gorm:"column:brand_id;primaryKey" json:"brand_id"`
	Dimension        string    `gorm:"column:dimension;primaryKey" json:"dimension"`
	Value            string    `gorm:"column:value;primaryKey" json:"value"`
	Alpha            float64   `gorm:"column:alpha;not null" json:"alpha"`
	Beta             float64   `gorm:"column:beta;not null" json:"beta"`
	ObservationCount int64     `gorm:"column:observation_count;not null" json:"observation_count"`
	Version          int64     `gorm:"column:version;not null" json:"-"`
	LastUpdated      time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (CreativeElement) TableName() string {
	return "creative_elements"
}

func NewCreativeElement(brandID string, key ElementKey, now time.Time) CreativeElement {
	return CreativeElement{
		BrandID:     brandID,
		Dimension:   key.Dimension,
		Value:       key.Value,
		Alpha:       ElementPriorAlpha,
		Beta:        ElementPriorBeta,
		LastUpdated: now,
	}
}

func (e CreativeElement) Key() ElementKey {
	return ElementKey{Dimension: e.Dimension, Value: e.Value}
}

// Mean is the posterior mean alpha/(alpha+beta).
func (e CreativeElement) Mean() float64 {
	return e.Alpha / (e.Alpha + e.Beta)
}

// Variance is alpha*beta / ((alpha+beta)^2 * (alpha+beta+1)).
func (e CreativeElement) Variance() float64 {
	s := e.Alpha + e.Beta
	return (e.Alpha * e.Beta) / (s * s * (s + 1))
}

func (e CreativeElement) Score() ElementScore {
	return ElementScore{
		Key:              e.Key(),
		Mean:             e.Mean(),
		Variance:         e.Variance(),
		ObservationCount: e.ObservationCount,
	}
}

// ElementScore is the read view of an element posterior.
type ElementScore struct {
	Key              ElementKey `json:"element"`
	Mean             float64    `json:"mean"`
	Variance         float64    `json:"variance"`
	ObservationCount int64      `json:"observation_count"`
}

// PriorScore is what an element that was never observed scores.
func PriorScore(key ElementKey) ElementScore {
	return NewCreativeElement("", key, time.Time{}).Score()
}

// ElementSeed is an additive prior contribution copied from another brand.
type ElementSeed struct {
	Key        ElementKey `json:"element"`
	Alpha      float64    `json:"alpha"`
	Beta       float64    `json:"beta"`
	Similarity float64    `json:"similarity"`
}

// OutcomeReceipt records that one reward has been folded into one element.
// It is written together with the element update, so a reward is never
// counted twice for the same element.
type OutcomeReceipt struct {
	RewardID  uuid.UUID `gorm:"column:reward_id;type:uuid;primaryKey" json:"reward_id"`
	BrandID   string    `gorm:"column:brand_id;primaryKey" json:"brand_id"`
	Dimension string    `gorm:"column:dimension;primaryKey" json:"dimension"`
	Value     string    `gorm:"column:value;primaryKey" json:"value"`
	AppliedAt time.Time `gorm:"column:applied_at" json:"applied_at"`
}

func (OutcomeReceipt) TableName() string {
	return "element_outcome_receipts"
}

func (r OutcomeReceipt) Key() ElementKey {
	return ElementKey{Dimension: r.Dimension, Value: r.Value}
}
