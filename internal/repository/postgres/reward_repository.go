package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adaptiveCreative/business/reward"
	"adaptiveCreative/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RewardRepository struct {
	DB *gorm.DB
}

var _ reward.RewardRepository = (*RewardRepository)(nil)

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{DB: db}
}

func (r *RewardRepository) GetReward(ctx context.Context, adID string) (*domain.RewardRecord, error) {
	var rec domain.RewardRecord
	err := r.DB.WithContext(ctx).First(&rec, "ad_id = ?", adID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reward_records: %w", err)
	}
	return &rec, nil
}

// CreateReward inserts the record unless the ad already has one. The
// unique index on ad_id makes the first writer the only one.
func (r *RewardRepository) CreateReward(ctx context.Context, rec *domain.RewardRecord) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ad_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert reward record: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *RewardRepository) ClaimStale(ctx context.Context, id uuid.UUID, staleBefore, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&domain.RewardRecord{}).
		Where("id = ? AND outcomes_applied_at IS NULL AND claimed_at < ?", id, staleBefore).
		Update("claimed_at", now)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim reward record: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *RewardRepository) MarkOutcomesApplied(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.DB.WithContext(ctx).
		Model(&domain.RewardRecord{}).
		Where("id = ? AND outcomes_applied_at IS NULL", id).
		Update("outcomes_applied_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark reward applied: %w", err)
	}
	return nil
}

type rewardedAdRow struct {
	AdID        string                                 `gorm:"column:ad_id"`
	Reward      float64                                `gorm:"column:reward"`
	ElementTags datatypes.JSONSlice[domain.ElementKey] `gorm:"column:element_tags"`
}

// ListRewardedAds joins each reward with the tags of its ad.
func (r *RewardRepository) ListRewardedAds(ctx context.Context, brandID string) ([]domain.RewardedAd, error) {
	var rows []rewardedAdRow
	err := r.DB.WithContext(ctx).
		Table("reward_records AS rr").
		Select("rr.ad_id, rr.reward, p.element_tags").
		Joins("JOIN ad_performance_records AS p ON p.ad_id = rr.ad_id").
		Where("rr.brand_id = ?", brandID).
		Order("rr.created_at, rr.ad_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rewarded ads: %w", err)
	}

	out := make([]domain.RewardedAd, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.RewardedAd{AdID: row.AdID, Tags: row.ElementTags, Reward: row.Reward})
	}
	return out, nil
}

func (r *RewardRepository) CountRewardedAds(ctx context.Context, brandID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&domain.RewardRecord{}).
		Where("brand_id = ?", brandID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count rewarded ads: %w", err)
	}
	return n, nil
}

// ListBrands returns every brand that has at least one reward.
func (r *RewardRepository) ListBrands(ctx context.Context) ([]string, error) {
	var out []string
	err := r.DB.WithContext(ctx).
		Model(&domain.RewardRecord{}).
		Distinct("brand_id").
		Order("brand_id").
		Pluck("brand_id", &out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	return out, nil
}
