package interaction

import (
	"context"
	"hash/fnv"
	"math/rand"

	"adaptiveCreative/business/element"
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/stats"
)

// how often the resample loop looks at the budget
const budgetCheckEvery = 64

type pairSample struct {
	pair    domain.ElementPair
	rewards []float64
}

// coOccurrences groups rewards by every unordered element pair present on
// an ad. Duplicate tags on one ad count once.
func coOccurrences(ads []domain.RewardedAd) map[domain.ElementPair][]float64 {
	out := make(map[domain.ElementPair][]float64)
	for _, ad := range ads {
		tags := uniqueTags(ad.Tags)
		for i := 0; i < len(tags); i++ {
			for j := i + 1; j < len(tags); j++ {
				p := domain.NewElementPair(tags[i], tags[j])
				out[p] = append(out[p], ad.Reward)
			}
		}
	}
	return out
}

func uniqueTags(tags []domain.ElementKey) []domain.ElementKey {
	seen := make(map[domain.ElementKey]struct{}, len(tags))
	out := make([]domain.ElementKey, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// pairSeed makes the resampling of a pair reproducible and independent of
// the order the pair's elements were given in.
func pairSeed(brandID string, p domain.ElementPair) int64 {
	h := fnv.New64a()
	h.Write([]byte(brandID))
	h.Write([]byte{0})
	h.Write([]byte(p.A.String()))
	h.Write([]byte{0})
	h.Write([]byte(p.B.String()))
	return int64(h.Sum64())
}

// evaluatePair computes the observed lift of a pair over the additive
// independence model and its bootstrap confidence interval. It returns
// ctx.Err() if ctx ends before the resampling completes.
func evaluatePair(
	ctx context.Context,
	brandID string,
	ps pairSample,
	baseline float64,
	scores element.Snapshot,
	cfg Config,
) (domain.InteractionEffect, error) {

	observed := stats.Mean(ps.rewards)
	expected := scores.Score(ps.pair.A).Mean + scores.Score(ps.pair.B).Mean - baseline
	effect := observed - expected

	rng := rand.New(rand.NewSource(pairSeed(brandID, ps.pair)))
	n := len(ps.rewards)
	effects := make([]float64, cfg.BootstrapIterations)
	for it := range effects {
		if it%budgetCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return domain.InteractionEffect{}, err
			}
		}
		sum := 0.0
		for k := 0; k < n; k++ {
			sum += ps.rewards[rng.Intn(n)]
		}
		effects[it] = sum/float64(n) - expected
	}
	sortedEffects := stats.SortedCopy(effects)
	ciLow := stats.Percentile(sortedEffects, 2.5)
	ciHigh := stats.Percentile(sortedEffects, 97.5)

	return domain.InteractionEffect{
		BrandID:           brandID,
		DimensionA:        ps.pair.A.Dimension,
		ValueA:            ps.pair.A.Value,
		DimensionB:        ps.pair.B.Dimension,
		ValueB:            ps.pair.B.Value,
		CoOccurrenceCount: n,
		ObservedAvgReward: observed,
		ExpectedAvgReward: expected,
		EffectSize:        effect,
		CILow:             ciLow,
		CIHigh:            ciHigh,
		Classification:    Classify(effect, ciLow, ciHigh, cfg.MinEffect),
	}, nil
}

// Classify labels an effect whose interval excludes zero and whose size
// passes minEffect.
func Classify(effect, ciLow, ciHigh, minEffect float64) domain.Classification {
	switch {
	case ciLow > 0 && effect >= minEffect:
		return domain.ClassificationSynergy
	case ciHigh < 0 && effect <= -minEffect:
		return domain.ClassificationConflict
	default:
		return domain.ClassificationNone
	}
}
