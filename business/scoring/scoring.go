package scoring

import (
	"sort"

	"adaptiveCreative/domain"
)

// Total is the weighted sum of a template's raw scores.
func Total(raw, weights domain.ScoreVector) float64 {
	var total float64
	for i := range raw {
		total += raw[i] * weights[i]
	}
	return total
}

// Rank orders candidates by total score, highest first. Equal totals are
// ordered by template id so the result is deterministic. An empty candidate
// set yields an empty, non-nil ranking.
func Rank(candidates []domain.TemplateCandidate, weights domain.ScoreVector) []domain.RankedTemplate {
	out := make([]domain.RankedTemplate, 0, len(candidates))
	for _, c := range candidates {
		breakdown := make(map[string]float64, domain.NumScorers)
		for _, s := range domain.AllScorers() {
			breakdown[s.String()] = c.RawScores[s] * weights[s]
		}
		out = append(out, domain.RankedTemplate{
			TemplateID: c.TemplateID,
			TotalScore: Total(c.RawScores, weights),
			Breakdown:  breakdown,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].TemplateID < out[j].TemplateID
	})
	return out
}
