package postgres

import (
	"context"
	"fmt"

	"adaptiveCreative/business/interaction"
	"adaptiveCreative/domain"

	"gorm.io/gorm"
)

const interactionBatchSize = 200

type InteractionRepository struct {
	DB *gorm.DB
}

var _ interaction.Repository = (*InteractionRepository)(nil)

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

// ReplaceInteractions deletes the brand's previous effects and inserts the
// new set in the same transaction.
func (r *InteractionRepository) ReplaceInteractions(ctx context.Context, brandID string, effects []domain.InteractionEffect) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("brand_id = ?", brandID).Delete(&domain.InteractionEffect{}).Error; err != nil {
			return err
		}
		if len(effects) == 0 {
			return nil
		}
		rows := make([]domain.InteractionEffect, len(effects))
		for i, e := range effects {
			e.ID = 0
			e.BrandID = brandID
			rows[i] = e
		}
		return tx.CreateInBatches(&rows, interactionBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace interactions: %w", err)
	}
	return nil
}

func (r *InteractionRepository) ListInteractions(ctx context.Context, brandID string, surfacedOnly bool) ([]domain.InteractionEffect, error) {
	q := r.DB.WithContext(ctx).Where("brand_id = ?", brandID)
	if surfacedOnly {
		q = q.Where("surfaced = ?", true)
	}

	var out []domain.InteractionEffect
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return out, nil
}
