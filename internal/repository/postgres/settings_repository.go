package postgres

import (
	"context"

	"adaptiveCreative/business/reward"
	"adaptiveCreative/business/transfer"
	"adaptiveCreative/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	DB *gorm.DB
}

var (
	_ reward.SettingsRepository   = (*SettingsRepository)(nil)
	_ transfer.SettingsRepository = (*SettingsRepository)(nil)
)

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) GetSettings(ctx context.Context, brandID string) (domain.BrandSettings, bool, error) {
	var st domain.BrandSettings

	err := r.DB.WithContext(ctx).
		Where("brand_id = ?", brandID).
		First(&st).Error
	if err == gorm.ErrRecordNotFound {
		return domain.BrandSettings{}, false, nil
	}
	if err != nil {
		return domain.BrandSettings{}, false, err
	}
	return st, true, nil
}

func (r *SettingsRepository) UpsertSettings(ctx context.Context, st domain.BrandSettings) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "brand_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transfer_opt_in",
				"baseline_window",
				"updated_at",
			}),
		}).
		Create(&st).Error
}
