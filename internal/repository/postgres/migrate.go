package postgres

import (
	"adaptiveCreative/domain"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the engine owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.CreativeElement{},
		&domain.OutcomeReceipt{},
		&domain.AdPerformanceRecord{},
		&domain.RewardRecord{},
		&domain.ScorerObservation{},
		&domain.ScorerWeightState{},
		&domain.InteractionEffect{},
		&domain.BrandSettings{},
		&domain.BrandTransfer{},
	)
}
