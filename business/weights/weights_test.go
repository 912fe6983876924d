//go:build !integration

package weights

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"adaptiveCreative/domain"

	"github.com/stretchr/testify/require"
)

func stateWith(count int64, static, learned float64) domain.ScorerWeightState {
	return domain.ScorerWeightState{
		BrandID:          "brand-1",
		Scorer:           domain.ScorerPerformance.String(),
		StaticWeight:     static,
		LearnedWeight:    learned,
		ObservationCount: count,
	}
}

func TestEffectiveContinuousAtPhaseBoundaries(t *testing.T) {
	const static, learned = 1.2, 0.4

	require.Equal(t, static, Effective(stateWith(29, static, learned)))
	require.InDelta(t, static, Effective(stateWith(30, static, learned)), 1e-12)

	mid := Effective(stateWith(65, static, learned))
	require.InDelta(t, (static+learned)/2, mid, 1e-12)

	near := Effective(stateWith(99, static, learned))
	require.InDelta(t, learned, near, 0.02)
	require.Equal(t, learned, Effective(stateWith(100, static, learned)))

	// the warm formula itself lands on learned at 100
	tAt100 := float64(100-domain.WarmPhaseStart) / float64(domain.HotPhaseStart-domain.WarmPhaseStart)
	require.InDelta(t, learned, static*(1-tAt100)+learned*tAt100, 1e-12)
}

func TestNextLearnedRails(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(42))

	old := 1.0
	for i := 0; i < 5000; i++ {
		target := (rng.Float64() - 0.5) * 200 // far outside the allowed range
		next := NextLearned(old, target, cfg)

		require.LessOrEqual(t, math.Abs(next-old), cfg.MaxStep+1e-12, "iteration %d", i)
		require.GreaterOrEqual(t, next, cfg.MinLearned)
		require.LessOrEqual(t, next, cfg.MaxLearned)
		old = next
	}

	require.Equal(t, 1.0, NextLearned(1.0, math.Inf(1), cfg))
	require.InDelta(t, 1.15, NextLearned(1.0, 5, cfg), 1e-12)
	require.InDelta(t, 0.85, NextLearned(1.0, -5, cfg), 1e-12)
	require.InDelta(t, 1.05, NextLearned(1.0, 1.05, cfg), 1e-12)
	require.Equal(t, cfg.MinLearned, NextLearned(0.12, -5, cfg))
}

func rewarded(reward float64, scores domain.ScoreVector) domain.ScorerObservation {
	r := reward
	return domain.ScorerObservation{
		BrandID:   "brand-1",
		RawScores: scores.Slice(),
		Reward:    &r,
	}
}

func freshStates() States {
	var out States
	for _, s := range domain.AllScorers() {
		out[s] = domain.NewScorerWeightState("brand-1", s)
	}
	return out
}

func TestLearnSkipsWithoutObservations(t *testing.T) {
	cur := freshStates()
	next, res := Learn(cur, nil, DefaultConfig(), time.Now())
	require.False(t, res.Updated)
	require.Equal(t, cur, next)
}

func TestLearnMovesTowardPredictiveScorer(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var obs []domain.ScorerObservation
	for i := 0; i < 120; i++ {
		var s domain.ScoreVector
		for j := range s {
			s[j] = rng.Float64()
		}
		// reward follows the performance scorer only
		obs = append(obs, rewarded(s[domain.ScorerPerformance], s))
	}

	cfg := DefaultConfig()
	cur := freshStates()
	next, res := Learn(cur, obs, cfg, time.Now())

	require.True(t, res.Updated)
	require.EqualValues(t, 120, res.Observations)
	require.Greater(t, res.Targets[domain.ScorerPerformance], res.Targets[domain.ScorerFatigue])

	for i := range next {
		require.EqualValues(t, 120, next[i].ObservationCount)
		require.LessOrEqual(t, math.Abs(next[i].LearnedWeight-cur[i].LearnedWeight), cfg.MaxStep+1e-12)
		require.GreaterOrEqual(t, next[i].LearnedWeight, cfg.MinLearned)
		require.LessOrEqual(t, next[i].LearnedWeight, cfg.MaxLearned)
	}
	require.Equal(t, domain.PhaseHot, next[0].Phase())
}

func TestLearnNeverLowersObservationCount(t *testing.T) {
	cur := freshStates()
	for i := range cur {
		cur[i].ObservationCount = 50
	}
	next, _ := Learn(cur, []domain.ScorerObservation{rewarded(0.5, domain.StaticWeights())}, DefaultConfig(), time.Now())
	for i := range next {
		require.EqualValues(t, 50, next[i].ObservationCount)
	}
}

func TestLearnKeepsWeightsOnZeroSignal(t *testing.T) {
	cur := freshStates()
	obs := []domain.ScorerObservation{rewarded(0, domain.StaticWeights())}

	next, res := Learn(cur, obs, DefaultConfig(), time.Now())
	require.True(t, res.Updated)
	for i := range next {
		require.Equal(t, cur[i].LearnedWeight, next[i].LearnedWeight)
	}
}

func TestPhaseSurvivesJSONRoundTrip(t *testing.T) {
	for _, count := range []int64{0, 29, 30, 99, 100, 5000} {
		st := stateWith(count, 1.0, 1.3)
		raw, err := json.Marshal(st)
		require.NoError(t, err)
		require.NotContains(t, string(raw), "phase")

		var back domain.ScorerWeightState
		require.NoError(t, json.Unmarshal(raw, &back))
		require.Equal(t, st.Phase(), back.Phase())
		require.Equal(t, Effective(st), Effective(back))
	}
}

// ---- learner with fakes ----

type memStates struct {
	rows []domain.ScorerWeightState
}

func (m *memStates) ListWeightStates(ctx context.Context, brandID string) ([]domain.ScorerWeightState, error) {
	var out []domain.ScorerWeightState
	for _, r := range m.rows {
		if r.BrandID == brandID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStates) SaveWeightStates(ctx context.Context, states []domain.ScorerWeightState) error {
	m.rows = append([]domain.ScorerWeightState(nil), states...)
	return nil
}

type memObservations []domain.ScorerObservation

func (m memObservations) ListRewardedObservations(ctx context.Context, brandID string) ([]domain.ScorerObservation, error) {
	return m, nil
}

func TestLearnerColdBrandUsesStaticWeights(t *testing.T) {
	l := NewLearner(&memStates{}, memObservations(nil), DefaultConfig())

	w, err := l.EffectiveWeights(context.Background(), "brand-1")
	require.NoError(t, err)
	require.Equal(t, domain.StaticWeights(), w)

	table, err := l.Table(context.Background(), "brand-1")
	require.NoError(t, err)
	require.Len(t, table, domain.NumScorers)
	require.Equal(t, domain.PhaseCold, table[0].Phase)
	require.Equal(t, "asset_match", table[0].Scorer)
}

func TestLearnerRunPersists(t *testing.T) {
	store := &memStates{}
	var obs memObservations
	for i := 0; i < 40; i++ {
		obs = append(obs, rewarded(0.6, domain.StaticWeights()))
	}
	l := NewLearner(store, obs, DefaultConfig())

	res, err := l.Run(context.Background(), "brand-1")
	require.NoError(t, err)
	require.True(t, res.Updated)
	require.Len(t, store.rows, domain.NumScorers)

	table, err := l.Table(context.Background(), "brand-1")
	require.NoError(t, err)
	for _, row := range table {
		require.Equal(t, domain.PhaseWarm, row.Phase)
		require.EqualValues(t, 40, row.ObservationCount)
	}
}
