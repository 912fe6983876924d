package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adaptiveCreative/business/reward"
	"adaptiveCreative/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PerformanceRepository struct {
	DB *gorm.DB
}

var _ reward.PerformanceRepository = (*PerformanceRepository)(nil)

func NewPerformanceRepository(db *gorm.DB) *PerformanceRepository {
	return &PerformanceRepository{DB: db}
}

func (r *PerformanceRepository) GetPerformance(ctx context.Context, adID string) (*domain.AdPerformanceRecord, error) {
	var rec domain.AdPerformanceRecord
	err := r.DB.WithContext(ctx).First(&rec, "ad_id = ?", adID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ad_performance_records: %w", err)
	}
	return &rec, nil
}

// SavePerformance upserts the running totals. Rows already closed by a
// reward are left untouched.
func (r *PerformanceRepository) SavePerformance(ctx context.Context, rec *domain.AdPerformanceRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ad_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"element_tags",
				"scorer_observation_id",
				"impressions",
				"clicks",
				"conversions",
				"spend",
				"revenue",
				"age_days",
				"ctr_ready",
				"ctr_ready_at",
				"conv_ready",
				"conv_ready_at",
				"roas_ready",
				"roas_ready_at",
				"updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "ad_performance_records", Name: "reward_computed"}, Value: false},
			}},
		}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to save ad performance: %w", err)
	}
	return nil
}

func readyColumn(m reward.Metric) (flag, at string) {
	switch m {
	case reward.MetricConvRate:
		return "conv_ready", "conv_ready_at"
	case reward.MetricROAS:
		return "roas_ready", "roas_ready_at"
	default:
		return "ctr_ready", "ctr_ready_at"
	}
}

// ListReadyHistory returns the brand's ads whose metric passed its gate,
// most recently ready first, capped at window when window > 0.
func (r *PerformanceRepository) ListReadyHistory(ctx context.Context, brandID string, metric reward.Metric, window int) ([]domain.AdPerformanceRecord, error) {
	flag, at := readyColumn(metric)

	q := r.DB.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Where(flag+" = ?", true).
		Order(at + " DESC").
		Order("ad_id")
	if window > 0 {
		q = q.Limit(window)
	}

	var out []domain.AdPerformanceRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s history: %w", metric, err)
	}
	return out, nil
}

func (r *PerformanceRepository) ListMaturedPending(ctx context.Context, limit int) ([]domain.AdPerformanceRecord, error) {
	var out []domain.AdPerformanceRecord
	err := r.DB.WithContext(ctx).
		Where("ctr_ready = ? AND conv_ready = ? AND roas_ready = ? AND reward_computed = ?", true, true, true, false).
		Order("updated_at").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matured ads: %w", err)
	}
	return out, nil
}

func (r *PerformanceRepository) MarkRewardComputed(ctx context.Context, adID string) error {
	err := r.DB.WithContext(ctx).
		Model(&domain.AdPerformanceRecord{}).
		Where("ad_id = ?", adID).
		Update("reward_computed", true).Error
	if err != nil {
		return fmt.Errorf("failed to close ad performance: %w", err)
	}
	return nil
}

// ListAdTags returns the element tags of every ad of a brand.
func (r *PerformanceRepository) ListAdTags(ctx context.Context, brandID string) ([][]domain.ElementKey, error) {
	var rows []domain.AdPerformanceRecord
	err := r.DB.WithContext(ctx).
		Select("ad_id", "element_tags").
		Where("brand_id = ?", brandID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ad tags: %w", err)
	}
	out := make([][]domain.ElementKey, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ElementTags)
	}
	return out, nil
}
