package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CampaignObjective string

const (
	ObjectiveConversions CampaignObjective = "conversions"
	ObjectiveSales       CampaignObjective = "sales"
	ObjectiveTraffic     CampaignObjective = "traffic"
	ObjectiveAwareness   CampaignObjective = "awareness"
)

func (o CampaignObjective) Valid() bool {
	switch o {
	case ObjectiveConversions, ObjectiveSales, ObjectiveTraffic, ObjectiveAwareness:
		return true
	}
	return false
}

// AdPerformanceRecord holds running totals for one published ad.
// Once RewardComputed is true the row is never modified again.
type AdPerformanceRecord struct {
	AdID                string                          `gorm:"column:ad_id;primaryKey" json:"ad_id"`
	BrandID             string                          `gorm:"column:brand_id;not null;index" json:"brand_id"`
	Objective           CampaignObjective               `gorm:"column:campaign_objective;not null" json:"campaign_objective"`
	ElementTags         datatypes.JSONSlice[ElementKey] `gorm:"column:element_tags" json:"element_tags"`
	ScorerObservationID *uuid.UUID                      `gorm:"column:scorer_observation_id;type:uuid" json:"scorer_observation_id,omitempty"`

	Impressions int64   `gorm:"column:impressions;not null" json:"impressions"`
	Clicks      int64   `gorm:"column:clicks;not null" json:"clicks"`
	Conversions int64   `gorm:"column:conversions;not null" json:"conversions"`
	Spend       float64 `gorm:"column:spend;not null" json:"spend"`
	Revenue     float64 `gorm:"column:revenue;not null" json:"revenue"`
	AgeDays     int     `gorm:"column:age_days;not null" json:"age_days"`

	CtrReady    bool       `gorm:"column:ctr_ready;not null" json:"ctr_ready"`
	CtrReadyAt  *time.Time `gorm:"column:ctr_ready_at" json:"ctr_ready_at,omitempty"`
	ConvReady   bool       `gorm:"column:conv_ready;not null" json:"conv_ready"`
	ConvReadyAt *time.Time `gorm:"column:conv_ready_at" json:"conv_ready_at,omitempty"`
	RoasReady   bool       `gorm:"column:roas_ready;not null" json:"roas_ready"`
	RoasReadyAt *time.Time `gorm:"column:roas_ready_at" json:"roas_ready_at,omitempty"`

	RewardComputed bool      `gorm:"column:reward_computed;not null;index" json:"reward_computed"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (AdPerformanceRecord) TableName() string {
	return "ad_performance_records"
}

// Matured reports whether all three metric gates have passed.
func (r AdPerformanceRecord) Matured() bool {
	return r.CtrReady && r.ConvReady && r.RoasReady
}

// CTR is clicks per impression.
func (r AdPerformanceRecord) CTR() float64 {
	if r.Impressions <= 0 {
		return 0
	}
	return float64(r.Clicks) / float64(r.Impressions)
}

// ConversionRate is conversions per click.
func (r AdPerformanceRecord) ConversionRate() float64 {
	if r.Clicks <= 0 {
		return 0
	}
	return float64(r.Conversions) / float64(r.Clicks)
}

// ROAS is revenue per unit of spend.
func (r AdPerformanceRecord) ROAS() float64 {
	if r.Spend <= 0 {
		return 0
	}
	return r.Revenue / r.Spend
}

// PerformanceUpdate is what the ad platform pushes for an ad, daily.
type PerformanceUpdate struct {
	AdID                string            `json:"ad_id" validate:"required"`
	BrandID             string            `json:"brand_id" validate:"required"`
	Objective           CampaignObjective `json:"campaign_objective" validate:"required,oneof=conversions sales traffic awareness"`
	Impressions         int64             `json:"impressions" validate:"gte=0"`
	Clicks              int64             `json:"clicks" validate:"gte=0"`
	Conversions         int64             `json:"conversions" validate:"gte=0"`
	Spend               float64           `json:"spend" validate:"gte=0"`
	Revenue             float64           `json:"revenue" validate:"gte=0"`
	AgeDays             int               `json:"age_days" validate:"gte=0"`
	ElementTags         []ElementKey      `json:"element_tags" validate:"dive"`
	ScorerObservationID *uuid.UUID        `json:"scorer_observation_id,omitempty"`
}

// RewardedAd is a matured ad with its composite reward, as consumed by the
// weekly interaction analysis.
type RewardedAd struct {
	AdID   string
	Tags   []ElementKey
	Reward float64
}
