package transfer

import (
	"context"

	"adaptiveCreative/domain"
)

type Config struct {
	// rewarded ads a source brand needs before its posteriors may be shared
	MinSourceAds int64

	// fraction of the source evidence that survives the transfer
	Shrink float64
}

func DefaultConfig() Config {
	return Config{
		MinSourceAds: 200,
		Shrink:       0.3,
	}
}

// ---- Repository interfaces ----

type AdCounter interface {
	CountRewardedAds(ctx context.Context, brandID string) (int64, error)
}

type ElementSource interface {
	ListElements(ctx context.Context, brandID string) ([]domain.CreativeElement, error)
}

type SettingsRepository interface {
	GetSettings(ctx context.Context, brandID string) (domain.BrandSettings, bool, error)
}

type Repository interface {
	// LatestTransfer returns nil, nil when the brand never received a transfer.
	LatestTransfer(ctx context.Context, targetBrandID string) (*domain.BrandTransfer, error)
	// ApplyTransfer writes the marker and adds every seed to the target's
	// elements in one transaction. Unless allowRepeat is set it fails with
	// domain.ErrAlreadyTransferred when a marker for the target exists.
	ApplyTransfer(ctx context.Context, marker *domain.BrandTransfer, seeds []domain.ElementSeed, allowRepeat bool) error
}
