package whitespace

import (
	"sort"

	"adaptiveCreative/business/element"
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/stats"
)

const (
	// pairs used this often are no longer whitespace
	MaxUsage = 5

	// element means must beat the uniform prior
	MinMean = 0.5

	noveltyScale = 0.1
)

// PairUsage counts, per unordered pair, how many ads carried both elements.
func PairUsage(adTags [][]domain.ElementKey) map[domain.ElementPair]int {
	out := make(map[domain.ElementPair]int)
	for _, tags := range adTags {
		seen := make(map[domain.ElementPair]struct{})
		for i := 0; i < len(tags); i++ {
			for j := i + 1; j < len(tags); j++ {
				if tags[i] == tags[j] {
					continue
				}
				p := domain.NewElementPair(tags[i], tags[j])
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				out[p]++
			}
		}
	}
	return out
}

// NoveltyBonus decays linearly from 0.1 at zero uses to 0 at MaxUsage.
func NoveltyBonus(usage int) float64 {
	return max(0, noveltyScale*float64(MaxUsage-usage)/MaxUsage)
}

// Identify ranks untested pairs of strong elements from different
// dimensions. It has no side effects.
func Identify(
	brandID string,
	scores element.Snapshot,
	interactions []domain.InteractionEffect,
	usage map[domain.ElementPair]int,
) []domain.WhitespaceCandidate {

	byPair := make(map[domain.ElementPair]domain.InteractionEffect, len(interactions))
	for _, e := range interactions {
		byPair[e.Pair()] = e
	}

	strong := make([]domain.ElementScore, 0, len(scores))
	for _, sc := range scores {
		if sc.Mean > MinMean {
			strong = append(strong, sc)
		}
	}
	sort.Slice(strong, func(i, j int) bool {
		return strong[i].Key.Less(strong[j].Key)
	})

	var out []domain.WhitespaceCandidate
	for i := 0; i < len(strong); i++ {
		for j := i + 1; j < len(strong); j++ {
			a, b := strong[i], strong[j]
			if a.Key.Dimension == b.Key.Dimension {
				continue
			}
			pair := domain.NewElementPair(a.Key, b.Key)

			used := usage[pair]
			if used >= MaxUsage {
				continue
			}

			synergy := 0.0
			if eff, ok := byPair[pair]; ok {
				if eff.Classification != domain.ClassificationNone {
					continue
				}
				synergy = eff.EffectSize
			}

			novelty := NoveltyBonus(used)
			potential := (a.Mean+b.Mean)/2 + synergy + novelty

			meanA, meanB := a.Mean, b.Mean
			if pair.A != a.Key {
				meanA, meanB = meanB, meanA
			}
			out = append(out, domain.WhitespaceCandidate{
				BrandID:            brandID,
				ElementA:           pair.A,
				ElementB:           pair.B,
				MeanA:              meanA,
				MeanB:              meanB,
				SynergyBonus:       synergy,
				NoveltyBonus:       novelty,
				PredictedPotential: stats.Clamp(potential, 0, 1),
				UsageCount:         used,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PredictedPotential != out[j].PredictedPotential {
			return out[i].PredictedPotential > out[j].PredictedPotential
		}
		if out[i].ElementA != out[j].ElementA {
			return out[i].ElementA.Less(out[j].ElementA)
		}
		return out[i].ElementB.Less(out[j].ElementB)
	})
	return out
}
