package postgres

import (
	"context"
	"fmt"
	"time"

	"adaptiveCreative/business/reward"
	"adaptiveCreative/business/scoring"
	"adaptiveCreative/business/weights"
	"adaptiveCreative/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ObservationRepository struct {
	DB *gorm.DB
}

var (
	_ scoring.ObservationRepository = (*ObservationRepository)(nil)
	_ weights.ObservationRepository = (*ObservationRepository)(nil)
	_ reward.ObservationRewarder    = (*ObservationRepository)(nil)
)

func NewObservationRepository(db *gorm.DB) *ObservationRepository {
	return &ObservationRepository{DB: db}
}

func (r *ObservationRepository) CreateObservation(ctx context.Context, obs *domain.ScorerObservation) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := r.DB.WithContext(ctx).Create(obs).Error; err != nil {
		return fmt.Errorf("failed to save scorer observation: %w", err)
	}
	return nil
}

// FillReward sets the reward once; later calls for the same observation
// are no-ops, as are calls naming a brand that does not own it.
func (r *ObservationRepository) FillReward(ctx context.Context, observationID uuid.UUID, brandID, adID string, reward float64, at time.Time) error {
	err := r.DB.WithContext(ctx).
		Model(&domain.ScorerObservation{}).
		Where("id = ? AND brand_id = ? AND reward IS NULL", observationID, brandID).
		Updates(map[string]any{
			"ad_id":       adID,
			"reward":      reward,
			"rewarded_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to fill scorer observation: %w", err)
	}
	return nil
}

func (r *ObservationRepository) ListRewardedObservations(ctx context.Context, brandID string) ([]domain.ScorerObservation, error) {
	var out []domain.ScorerObservation
	err := r.DB.WithContext(ctx).
		Where("brand_id = ? AND reward IS NOT NULL", brandID).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rewarded observations: %w", err)
	}
	return out, nil
}
