package batch

import (
	"context"
	"time"

	"adaptiveCreative/business/interaction"
	"adaptiveCreative/business/weights"
	"adaptiveCreative/domain"
)

type Config struct {
	// brands processed at the same time by RunAll
	Parallelism int

	// how long a distributed brand lock lives if its holder dies
	LockTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Parallelism: 4,
		LockTTL:     30 * time.Minute,
	}
}

type WeightLearner interface {
	Run(ctx context.Context, brandID string) (weights.RunResult, error)
}

type InteractionDetector interface {
	Run(ctx context.Context, brandID string) (interaction.Report, error)
}

type WhitespaceRefresher interface {
	Refresh(ctx context.Context, brandID string) ([]domain.WhitespaceCandidate, error)
}

type BrandLister interface {
	// ListBrands returns every brand with at least one rewarded ad.
	ListBrands(ctx context.Context) ([]string, error)
}

// Locker is a lock shared by every engine instance.
type Locker interface {
	// Acquire reports false when another holder owns the brand.
	Acquire(ctx context.Context, brandID string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
