package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"

	"github.com/google/uuid"
)

// WeightSource supplies the effective weight of every scorer for a brand.
type WeightSource interface {
	EffectiveWeights(ctx context.Context, brandID string) (domain.ScoreVector, error)
}

type ObservationRepository interface {
	CreateObservation(ctx context.Context, obs *domain.ScorerObservation) error
}

type Service struct {
	weights      WeightSource
	observations ObservationRepository
	now          func() time.Time
}

func NewService(weights WeightSource, observations ObservationRepository) *Service {
	return &Service{weights: weights, observations: observations, now: time.Now}
}

// RankTemplates reads the brand's current effective weights and ranks the
// candidates. With record set, the top template is stored as a scorer
// observation whose reward is filled once the resulting ad matures.
func (s *Service) RankTemplates(
	ctx context.Context,
	brandID string,
	candidates []domain.TemplateCandidate,
	record bool,
) (*domain.Ranking, error) {

	if brandID == "" {
		return nil, fmt.Errorf("%w: brand_id is required", domain.ErrInvalidInput)
	}
	if err := validateCandidates(candidates); err != nil {
		return nil, err
	}

	weights, err := s.weights.EffectiveWeights(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("load effective weights: %w", err)
	}

	ranking := &domain.Ranking{
		BrandID:     brandID,
		Templates:   Rank(candidates, weights),
		WeightsUsed: weights.Map(),
	}

	if !record || len(candidates) == 0 || s.observations == nil {
		return ranking, nil
	}

	top := ranking.Templates[0].TemplateID
	var raw domain.ScoreVector
	for _, c := range candidates {
		if c.TemplateID == top {
			raw = c.RawScores
			break
		}
	}

	obs := &domain.ScorerObservation{
		ID:          uuid.New(),
		BrandID:     brandID,
		TemplateID:  top,
		RawScores:   raw.Slice(),
		WeightsUsed: weights.Slice(),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.observations.CreateObservation(ctx, obs); err != nil {
		return nil, fmt.Errorf("record scorer observation: %w", err)
	}
	ranking.ObservationID = &obs.ID

	logger.Debug("scorer_observation_recorded",
		"trace_id", trace.TraceIDFromContext(ctx),
		"brand_id", brandID,
		"template_id", top,
		"observation_id", obs.ID.String(),
	)
	return ranking, nil
}

func validateCandidates(candidates []domain.TemplateCandidate) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c.TemplateID == "" {
			return fmt.Errorf("%w: template_id is required", domain.ErrInvalidInput)
		}
		if _, dup := seen[c.TemplateID]; dup {
			return fmt.Errorf("%w: duplicate template_id %q", domain.ErrInvalidInput, c.TemplateID)
		}
		seen[c.TemplateID] = struct{}{}
		for i, v := range c.RawScores {
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("%w: %s score %v for template %q outside [0,1]",
					domain.ErrInvalidInput, domain.Scorer(i), v, c.TemplateID)
			}
		}
	}
	return nil
}

// CandidateFromScores builds a candidate from a scorer-name keyed map.
// Every scorer must be present exactly once.
func CandidateFromScores(templateID string, scores map[string]float64) (domain.TemplateCandidate, error) {
	if len(scores) != domain.NumScorers {
		return domain.TemplateCandidate{}, fmt.Errorf("%w: template %q needs %d scores, got %d",
			domain.ErrInvalidInput, templateID, domain.NumScorers, len(scores))
	}
	for name := range scores {
		if _, ok := domain.ParseScorer(name); !ok {
			return domain.TemplateCandidate{}, fmt.Errorf("%w: unknown scorer %q", domain.ErrInvalidInput, name)
		}
	}
	return domain.TemplateCandidate{
		TemplateID: templateID,
		RawScores:  domain.ScoreVectorFromMap(scores),
	}, nil
}
