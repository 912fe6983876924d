package whitespace

import (
	"context"
	"fmt"
	"time"

	"adaptiveCreative/business/element"
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"
)

type ScoreSource interface {
	Scores(ctx context.Context, brandID string) (element.Snapshot, error)
}

type InteractionSource interface {
	ListInteractions(ctx context.Context, brandID string, surfacedOnly bool) ([]domain.InteractionEffect, error)
}

type AdTagSource interface {
	// ListAdTags returns the element tags of every ad of the brand,
	// matured or not.
	ListAdTags(ctx context.Context, brandID string) ([][]domain.ElementKey, error)
}

// Cache holds the last computed candidate list per brand. It is advisory:
// a miss or an error falls back to recomputing.
type Cache interface {
	GetWhitespace(ctx context.Context, brandID string) ([]domain.WhitespaceCandidate, bool, error)
	SetWhitespace(ctx context.Context, brandID string, candidates []domain.WhitespaceCandidate, ttl time.Duration) error
}

type Identifier struct {
	scores       ScoreSource
	interactions InteractionSource
	tags         AdTagSource
	cache        Cache
	ttl          time.Duration
}

// NewIdentifier accepts a nil cache.
func NewIdentifier(scores ScoreSource, interactions InteractionSource, tags AdTagSource, cache Cache, ttl time.Duration) *Identifier {
	return &Identifier{
		scores:       scores,
		interactions: interactions,
		tags:         tags,
		cache:        cache,
		ttl:          ttl,
	}
}

// Refresh recomputes the brand's candidates and stores them in the cache.
func (w *Identifier) Refresh(ctx context.Context, brandID string) ([]domain.WhitespaceCandidate, error) {
	scores, err := w.scores.Scores(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("load element scores: %w", err)
	}
	effects, err := w.interactions.ListInteractions(ctx, brandID, false)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	adTags, err := w.tags.ListAdTags(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list ad tags: %w", err)
	}

	out := Identify(brandID, scores, effects, PairUsage(adTags))

	if w.cache != nil {
		if err := w.cache.SetWhitespace(ctx, brandID, out, w.ttl); err != nil {
			logger.Warn("whitespace_cache_write_failed", "brand_id", brandID, "error", err)
		}
	}

	logger.Info("whitespace_refreshed",
		"trace_id", trace.TraceIDFromContext(ctx),
		"brand_id", brandID,
		"candidates", len(out),
	)
	return out, nil
}

// Candidates serves from the cache and recomputes on a miss. limit <= 0
// returns every candidate.
func (w *Identifier) Candidates(ctx context.Context, brandID string, limit int) ([]domain.WhitespaceCandidate, error) {
	var out []domain.WhitespaceCandidate

	hit := false
	if w.cache != nil {
		cached, ok, err := w.cache.GetWhitespace(ctx, brandID)
		if err != nil {
			logger.Warn("whitespace_cache_read_failed", "brand_id", brandID, "error", err)
		}
		if ok {
			out, hit = cached, true
		}
	}

	if !hit {
		var err error
		out, err = w.Refresh(ctx, brandID)
		if err != nil {
			return nil, err
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
