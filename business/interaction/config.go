package interaction

import (
	"context"
	"time"

	"adaptiveCreative/business/element"
	"adaptiveCreative/domain"
)

type Config struct {
	BootstrapIterations int
	MinCoOccurrence     int

	// smallest |effect_size| that can be classified as synergy or conflict
	MinEffect float64

	TopSurfaced int

	// wall-clock budget for all pairs of one brand; pairs not finished in
	// time are deferred to the next run
	Budget time.Duration

	Parallelism int
}

func DefaultConfig() Config {
	return Config{
		BootstrapIterations: 1000,
		MinCoOccurrence:     10,
		MinEffect:           0.05,
		TopSurfaced:         15,
		Budget:              2 * time.Minute,
		Parallelism:         4,
	}
}

// ---- Repository interfaces ----

type RewardedAdSource interface {
	// ListRewardedAds returns every matured ad of the brand that has a reward.
	ListRewardedAds(ctx context.Context, brandID string) ([]domain.RewardedAd, error)
}

type ScoreSource interface {
	Scores(ctx context.Context, brandID string) (element.Snapshot, error)
}

type Repository interface {
	// ReplaceInteractions swaps the brand's stored effects for effects in one step.
	ReplaceInteractions(ctx context.Context, brandID string, effects []domain.InteractionEffect) error
	ListInteractions(ctx context.Context, brandID string, surfacedOnly bool) ([]domain.InteractionEffect, error)
}
