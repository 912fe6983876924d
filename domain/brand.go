package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BrandSettings holds per-brand overrides; a missing row means defaults.
type BrandSettings struct {
	BrandID        string    `gorm:"column:brand_id;primaryKey" json:"brand_id"`
	TransferOptIn  bool      `gorm:"column:transfer_opt_in;not null" json:"transfer_opt_in"`
	BaselineWindow int       `gorm:"column:baseline_window;not null" json:"baseline_window" validate:"gte=0"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (BrandSettings) TableName() string {
	return "brand_settings"
}

// BrandTransfer is the transferred_from marker written with every
// cross-brand seeding.
type BrandTransfer struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SourceBrandID string            `gorm:"column:source_brand_id;not null" json:"source_brand_id"`
	TargetBrandID string            `gorm:"column:target_brand_id;not null;index" json:"target_brand_id"`
	Similarity    float64           `gorm:"column:similarity;not null" json:"similarity"`
	ElementCount  int               `gorm:"column:element_count;not null" json:"element_count"`
	Overrides     datatypes.JSONMap `gorm:"column:dimension_overrides" json:"dimension_overrides,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (BrandTransfer) TableName() string {
	return "brand_transfers"
}

type TransferRequest struct {
	SourceBrandID       string             `json:"source_brand_id" validate:"required"`
	TargetBrandID       string             `json:"-"`
	Similarity          float64            `json:"similarity" validate:"gt=0,lte=1"`
	DimensionSimilarity map[string]float64 `json:"dimension_similarity,omitempty"`
	AllowRepeat         bool               `json:"allow_repeat"`
}

type TransferResult struct {
	Transfer BrandTransfer `json:"transfer"`
	Seeds    []ElementSeed `json:"seeds"`
}

// BatchReport summarises one weekly run for one brand.
type BatchReport struct {
	RunID             uuid.UUID `json:"run_id"`
	BrandID           string    `json:"brand_id"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	WeightsUpdated    bool      `json:"weights_updated"`
	WeightObservation int64     `json:"weight_observations"`
	PairsEvaluated    int       `json:"pairs_evaluated"`
	PairsDeferred     int       `json:"pairs_deferred"`
	PairsSurfaced     int       `json:"pairs_surfaced"`
	WhitespaceCount   int       `json:"whitespace_count"`
	Error             string    `json:"error,omitempty"`
}
