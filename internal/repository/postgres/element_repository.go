package postgres

import (
	"context"
	"errors"
	"fmt"

	"adaptiveCreative/business/element"
	"adaptiveCreative/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ElementRepository struct {
	DB *gorm.DB
}

var _ element.Store = (*ElementRepository)(nil)

func NewElementRepository(db *gorm.DB) *ElementRepository {
	return &ElementRepository{DB: db}
}

func (r *ElementRepository) GetElement(ctx context.Context, brandID string, key domain.ElementKey) (*domain.CreativeElement, error) {
	var el domain.CreativeElement
	err := r.DB.WithContext(ctx).
		Where("brand_id = ? AND dimension = ? AND value = ?", brandID, key.Dimension, key.Value).
		First(&el).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query creative_elements: %w", err)
	}
	return &el, nil
}

// errLostRace rolls back a receipt whose element write lost to another writer.
var errLostRace = errors.New("element write lost race")

// withReceipt runs write in a transaction that first stores the receipt.
// A receipt already present yields element.ErrAlreadyApplied; a write that
// reports false rolls the receipt back.
func (r *ElementRepository) withReceipt(ctx context.Context, receipt *domain.OutcomeReceipt, write func(tx *gorm.DB) (bool, error)) (bool, error) {
	if receipt == nil {
		return write(r.DB.WithContext(ctx))
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(receipt)
		if res.Error != nil {
			return fmt.Errorf("failed to insert outcome receipt: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return element.ErrAlreadyApplied
		}

		ok, err := write(tx)
		if err != nil {
			return err
		}
		if !ok {
			return errLostRace
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ElementRepository) InsertElement(ctx context.Context, el *domain.CreativeElement, receipt *domain.OutcomeReceipt) (bool, error) {
	return r.withReceipt(ctx, receipt, func(tx *gorm.DB) (bool, error) {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(el)
		if res.Error != nil {
			return false, fmt.Errorf("failed to insert creative element: %w", res.Error)
		}
		return res.RowsAffected == 1, nil
	})
}

// CompareAndSwap is a single conditional UPDATE; zero affected rows means
// another writer bumped the version first.
func (r *ElementRepository) CompareAndSwap(ctx context.Context, el *domain.CreativeElement, expectedVersion int64, receipt *domain.OutcomeReceipt) (bool, error) {
	return r.withReceipt(ctx, receipt, func(tx *gorm.DB) (bool, error) {
		res := tx.Model(&domain.CreativeElement{}).
			Where("brand_id = ? AND dimension = ? AND value = ? AND version = ?",
				el.BrandID, el.Dimension, el.Value, expectedVersion).
			Updates(map[string]any{
				"alpha":             el.Alpha,
				"beta":              el.Beta,
				"observation_count": el.ObservationCount,
				"version":           el.Version,
				"last_updated":      el.LastUpdated,
			})
		if res.Error != nil {
			return false, fmt.Errorf("failed to update creative element: %w", res.Error)
		}
		return res.RowsAffected == 1, nil
	})
}

func (r *ElementRepository) ListElements(ctx context.Context, brandID string) ([]domain.CreativeElement, error) {
	var out []domain.CreativeElement
	err := r.DB.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("dimension, value").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list creative elements: %w", err)
	}
	return out, nil
}
