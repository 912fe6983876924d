package reward

import (
	"context"
	"time"

	"adaptiveCreative/domain"

	"github.com/google/uuid"
)

type Config struct {
	// trailing number of ready ads per metric used for the baseline; 0 = all
	BaselineWindow int

	// how long a reward whose element updates never finished stays claimed
	// before a sweep may re-apply it
	ClaimLease time.Duration

	SweepBatchSize int
}

const (
	defaultClaimLease     = 15 * time.Minute
	defaultSweepBatchSize = 500
)

func DefaultConfig() Config {
	return Config{
		BaselineWindow: 0,
		ClaimLease:     defaultClaimLease,
		SweepBatchSize: defaultSweepBatchSize,
	}
}

// ---- Repository interfaces ----

type PerformanceRepository interface {
	GetPerformance(ctx context.Context, adID string) (*domain.AdPerformanceRecord, error)
	SavePerformance(ctx context.Context, rec *domain.AdPerformanceRecord) error
	ListReadyHistory(ctx context.Context, brandID string, metric Metric, window int) ([]domain.AdPerformanceRecord, error)
	ListMaturedPending(ctx context.Context, limit int) ([]domain.AdPerformanceRecord, error)
	MarkRewardComputed(ctx context.Context, adID string) error
}

type RewardRepository interface {
	GetReward(ctx context.Context, adID string) (*domain.RewardRecord, error)
	CreateReward(ctx context.Context, rec *domain.RewardRecord) (bool, error)
	ClaimStale(ctx context.Context, id uuid.UUID, staleBefore, now time.Time) (bool, error)
	MarkOutcomesApplied(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ElementRecorder is the element reward model's only mutator. Each
// (reward, element) pair is applied at most once; a repeat reports false.
type ElementRecorder interface {
	ApplyRewardOutcome(ctx context.Context, rewardID uuid.UUID, brandID string, key domain.ElementKey, reward float64) (bool, error)
}

type ObservationRewarder interface {
	FillReward(ctx context.Context, observationID uuid.UUID, brandID, adID string, reward float64, at time.Time) error
}

type SettingsRepository interface {
	GetSettings(ctx context.Context, brandID string) (domain.BrandSettings, bool, error)
}
