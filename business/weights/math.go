package weights

import (
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/stats"
)

// sufficientStats are the per-scorer running sums of one regression pass.
type sufficientStats struct {
	scoreReward domain.ScoreVector // Σ score_i * reward
	scoreSq     domain.ScoreVector // Σ score_i^2
	n           int64
}

func accumulate(observations []domain.ScorerObservation) sufficientStats {
	var st sufficientStats
	for _, o := range observations {
		if o.Reward == nil {
			continue
		}
		r := *o.Reward
		scores := o.Scores()
		for i, s := range scores {
			st.scoreReward[i] += s * r
			st.scoreSq[i] += s * s
		}
		st.n++
	}
	return st
}

// ridge computes Σ(s*r) / (Σ(s²) + λ) per scorer.
func (st sufficientStats) ridge(lambda float64) domain.ScoreVector {
	var raw domain.ScoreVector
	for i := range raw {
		raw[i] = st.scoreReward[i] / (st.scoreSq[i] + lambda)
	}
	return raw
}

// normalizeToUnitMean rescales raw coefficients so their mean is 1.0,
// putting them on the same scale as the static weights. ok is false when
// the coefficients carry no usable signal.
func normalizeToUnitMean(raw domain.ScoreVector) (domain.ScoreVector, bool) {
	mean := stats.Mean(raw[:])
	if mean <= 0 || !stats.Finite(mean) {
		return raw, false
	}
	var out domain.ScoreVector
	for i, v := range raw {
		out[i] = v / mean
	}
	return out, true
}

// NextLearned moves old toward target by at most MaxStep and keeps the
// result inside [MinLearned, MaxLearned].
func NextLearned(old, target float64, cfg Config) float64 {
	if !stats.Finite(target) {
		return stats.Clamp(old, cfg.MinLearned, cfg.MaxLearned)
	}
	step := stats.Clamp(target-old, -cfg.MaxStep, cfg.MaxStep)
	return stats.Clamp(old+step, cfg.MinLearned, cfg.MaxLearned)
}

// Effective blends static and learned weight according to the phase
// derived from the observation count. The blend is continuous at both
// phase boundaries.
func Effective(st domain.ScorerWeightState) float64 {
	switch st.Phase() {
	case domain.PhaseCold:
		return st.StaticWeight
	case domain.PhaseWarm:
		t := float64(st.ObservationCount-domain.WarmPhaseStart) /
			float64(domain.HotPhaseStart-domain.WarmPhaseStart)
		return st.StaticWeight*(1-t) + st.LearnedWeight*t
	default:
		return st.LearnedWeight
	}
}

func View(st domain.ScorerWeightState) domain.ScorerWeightView {
	return domain.ScorerWeightView{
		Scorer:           st.Scorer,
		Static:           st.StaticWeight,
		Learned:          st.LearnedWeight,
		Effective:        Effective(st),
		Phase:            st.Phase(),
		ObservationCount: st.ObservationCount,
		LastUpdate:       st.LastUpdate,
	}
}
