package postgres

import (
	"context"
	"errors"
	"fmt"

	"adaptiveCreative/business/transfer"
	"adaptiveCreative/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransferRepository struct {
	DB *gorm.DB
}

var _ transfer.Repository = (*TransferRepository)(nil)

func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{DB: db}
}

func (r *TransferRepository) LatestTransfer(ctx context.Context, targetBrandID string) (*domain.BrandTransfer, error) {
	return latestTransfer(r.DB.WithContext(ctx), targetBrandID)
}

func latestTransfer(db *gorm.DB, targetBrandID string) (*domain.BrandTransfer, error) {
	var t domain.BrandTransfer
	err := db.Where("target_brand_id = ?", targetBrandID).
		Order("created_at DESC").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query brand_transfers: %w", err)
	}
	return &t, nil
}

// ApplyTransfer commits the marker and every seed together. Seeds are
// added onto existing posteriors and bump their version, so concurrent
// record_outcome writers retry against the seeded row.
// lockTransferTarget serializes transfers into one target brand until the
// transaction ends, so the repeat check and the marker insert cannot
// interleave. SQLite already runs one writer at a time.
func lockTransferTarget(tx *gorm.DB, targetBrandID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "brand_transfer:"+targetBrandID).Error
	if err != nil {
		return fmt.Errorf("failed to lock transfer target: %w", err)
	}
	return nil
}

func (r *TransferRepository) ApplyTransfer(ctx context.Context, marker *domain.BrandTransfer, seeds []domain.ElementSeed, allowRepeat bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransferTarget(tx, marker.TargetBrandID); err != nil {
			return err
		}
		if !allowRepeat {
			prev, err := latestTransfer(tx, marker.TargetBrandID)
			if err != nil {
				return err
			}
			if prev != nil {
				return fmt.Errorf("%w: brand %s", domain.ErrAlreadyTransferred, marker.TargetBrandID)
			}
		}

		if err := tx.Create(marker).Error; err != nil {
			return fmt.Errorf("failed to save transfer marker: %w", err)
		}

		for _, s := range seeds {
			el := transfer.SeedElement(nil, marker.TargetBrandID, s, marker.CreatedAt)
			el.Version = 1

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "brand_id"}, {Name: "dimension"}, {Name: "value"}},
				DoUpdates: clause.Assignments(map[string]any{
					"alpha":        gorm.Expr("creative_elements.alpha + ?", s.Alpha),
					"beta":         gorm.Expr("creative_elements.beta + ?", s.Beta),
					"version":      gorm.Expr("creative_elements.version + 1"),
					"last_updated": marker.CreatedAt,
				}),
			}).Create(&el).Error
			if err != nil {
				return fmt.Errorf("failed to seed element %s: %w", s.Key, err)
			}
		}
		return nil
	})
}
