package domain

import (
	"time"

	"github.com/google/uuid"
)

// RewardRecord is written at most once per ad and never updated afterwards,
// except for the bookkeeping columns tracking the element side effects.
type RewardRecord struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AdID      string            `gorm:"column:ad_id;not null;uniqueIndex" json:"ad_id"`
	BrandID   string            `gorm:"column:brand_id;not null;index" json:"brand_id"`
	Objective CampaignObjective `gorm:"column:campaign_objective;not null" json:"campaign_objective"`

	Reward   float64 `gorm:"column:reward;not null" json:"reward"`
	CTRNorm  float64 `gorm:"column:ctr_norm;not null" json:"ctr_norm"`
	ConvNorm float64 `gorm:"column:conv_norm;not null" json:"conv_norm"`
	ROASNorm float64 `gorm:"column:roas_norm;not null" json:"roas_norm"`

	RawCTR  float64 `gorm:"column:raw_ctr;not null" json:"raw_ctr"`
	RawConv float64 `gorm:"column:raw_conv;not null" json:"raw_conv"`
	RawROAS float64 `gorm:"column:raw_roas;not null" json:"raw_roas"`

	ClaimedAt         time.Time  `gorm:"column:claimed_at;not null" json:"-"`
	OutcomesAppliedAt *time.Time `gorm:"column:outcomes_applied_at" json:"outcomes_applied_at,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RewardRecord) TableName() string {
	return "reward_records"
}
