package postgres

import (
	"context"
	"fmt"

	"adaptiveCreative/business/weights"
	"adaptiveCreative/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeightRepository struct {
	DB *gorm.DB
}

var _ weights.StateRepository = (*WeightRepository)(nil)

func NewWeightRepository(db *gorm.DB) *WeightRepository {
	return &WeightRepository{DB: db}
}

func (r *WeightRepository) ListWeightStates(ctx context.Context, brandID string) ([]domain.ScorerWeightState, error) {
	var out []domain.ScorerWeightState
	err := r.DB.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scorer weights: %w", err)
	}
	return out, nil
}

// SaveWeightStates upserts a whole weight table in one transaction so
// readers never see a half-updated brand.
func (r *WeightRepository) SaveWeightStates(ctx context.Context, states []domain.ScorerWeightState) error {
	if len(states) == 0 {
		return nil
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "brand_id"}, {Name: "scorer_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"static_weight",
				"learned_weight",
				"observation_count",
				"last_update",
			}),
		}).Create(&states).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save scorer weights: %w", err)
	}
	return nil
}
