package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Service struct {
	ads      AdCounter
	elements ElementSource
	settings SettingsRepository
	repo     Repository
	cfg      Config
	now      func() time.Time
}

func NewService(ads AdCounter, elements ElementSource, settings SettingsRepository, repo Repository, cfg Config) *Service {
	return &Service{
		ads:      ads,
		elements: elements,
		settings: settings,
		repo:     repo,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Transfer seeds the target brand's element posteriors with shrunk copies
// of the source brand's. Only aggregate alpha/beta values cross brands.
// Every precondition is checked before anything is written.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	st, ok, err := s.settings.GetSettings(ctx, req.TargetBrandID)
	if err != nil {
		return nil, fmt.Errorf("load target settings: %w", err)
	}
	if !ok || !st.TransferOptIn {
		return nil, fmt.Errorf("%w: brand %s has not opted in to transfers", domain.ErrPreconditionFailed, req.TargetBrandID)
	}

	n, err := s.ads.CountRewardedAds(ctx, req.SourceBrandID)
	if err != nil {
		return nil, fmt.Errorf("count source ads: %w", err)
	}
	if n < s.cfg.MinSourceAds {
		return nil, fmt.Errorf("%w: source brand %s has %d rewarded ads, need %d",
			domain.ErrPreconditionFailed, req.SourceBrandID, n, s.cfg.MinSourceAds)
	}

	if !req.AllowRepeat {
		prev, err := s.repo.LatestTransfer(ctx, req.TargetBrandID)
		if err != nil {
			return nil, fmt.Errorf("load previous transfer: %w", err)
		}
		if prev != nil {
			return nil, fmt.Errorf("%w: brand %s was seeded from %s at %s",
				domain.ErrAlreadyTransferred, req.TargetBrandID, prev.SourceBrandID, prev.CreatedAt.Format(time.RFC3339))
		}
	}

	source, err := s.elements.ListElements(ctx, req.SourceBrandID)
	if err != nil {
		return nil, fmt.Errorf("list source elements: %w", err)
	}

	seeds := PlanSeeds(source, req.Similarity, req.DimensionSimilarity, s.cfg.Shrink)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: source brand %s has no transferable elements", domain.ErrPreconditionFailed, req.SourceBrandID)
	}

	marker := &domain.BrandTransfer{
		ID:            uuid.New(),
		SourceBrandID: req.SourceBrandID,
		TargetBrandID: req.TargetBrandID,
		Similarity:    req.Similarity,
		ElementCount:  len(seeds),
		Overrides:     overridesJSON(req.DimensionSimilarity),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.ApplyTransfer(ctx, marker, seeds, req.AllowRepeat); err != nil {
		if errors.Is(err, domain.ErrAlreadyTransferred) {
			return nil, err
		}
		return nil, fmt.Errorf("apply transfer: %w", err)
	}

	TransfersAppliedTotal.Inc()
	logger.Info("brand_transfer_applied",
		"trace_id", trace.TraceIDFromContext(ctx),
		"brand_id", req.TargetBrandID,
		"source_brand_id", req.SourceBrandID,
		"similarity", req.Similarity,
		"elements", len(seeds),
		"repeat", req.AllowRepeat,
	)

	return &domain.TransferResult{Transfer: *marker, Seeds: seeds}, nil
}

// PlanSeeds computes the additive prior for every source element:
// alpha*similarity*shrink and beta*similarity*shrink. The similarity of an
// element is its dimension override when one is given. Elements with zero
// similarity are not transferred.
func PlanSeeds(source []domain.CreativeElement, similarity float64, byDimension map[string]float64, shrink float64) []domain.ElementSeed {
	out := make([]domain.ElementSeed, 0, len(source))
	for _, el := range source {
		sim := similarity
		if v, ok := byDimension[el.Dimension]; ok {
			sim = v
		}
		if sim <= 0 {
			continue
		}
		out = append(out, domain.ElementSeed{
			Key:        el.Key(),
			Alpha:      el.Alpha * sim * shrink,
			Beta:       el.Beta * sim * shrink,
			Similarity: sim,
		})
	}
	return out
}

// SeedElement adds a seed onto an existing posterior, or onto the uniform
// prior when the target never observed the element. The observation count
// is left alone: seeded evidence is not an observation of this brand.
func SeedElement(existing *domain.CreativeElement, brandID string, seed domain.ElementSeed, now time.Time) domain.CreativeElement {
	var el domain.CreativeElement
	if existing != nil {
		el = *existing
	} else {
		el = domain.NewCreativeElement(brandID, seed.Key, now)
	}
	el.Alpha += seed.Alpha
	el.Beta += seed.Beta
	el.LastUpdated = now
	return el
}

func validateRequest(req domain.TransferRequest) error {
	if req.SourceBrandID == "" || req.TargetBrandID == "" {
		return fmt.Errorf("%w: source and target brand are required", domain.ErrInvalidInput)
	}
	if req.SourceBrandID == req.TargetBrandID {
		return fmt.Errorf("%w: a brand cannot transfer to itself", domain.ErrInvalidInput)
	}
	if !(req.Similarity > 0 && req.Similarity <= 1) {
		return fmt.Errorf("%w: similarity %v outside (0,1]", domain.ErrInvalidInput, req.Similarity)
	}
	for dim, v := range req.DimensionSimilarity {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%w: similarity %v for dimension %s outside [0,1]", domain.ErrInvalidInput, v, dim)
		}
	}
	return nil
}

func overridesJSON(in map[string]float64) datatypes.JSONMap {
	if len(in) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
