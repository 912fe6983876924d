package weights

import (
	"context"
	"fmt"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"
)

// States is the full weight table of one brand, indexed by scorer.
type States [domain.NumScorers]domain.ScorerWeightState

// RunResult summarises one learner pass for a brand.
type RunResult struct {
	Updated      bool
	Observations int64
	Targets      domain.ScoreVector
}

type Learner struct {
	states       StateRepository
	observations ObservationRepository
	cfg          Config
	now          func() time.Time
}

func NewLearner(states StateRepository, observations ObservationRepository, cfg Config) *Learner {
	return &Learner{
		states:       states,
		observations: observations,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Load returns the brand's weight table; scorers without a stored row
// start at their static weight.
func (l *Learner) Load(ctx context.Context, brandID string) (States, error) {
	var out States
	for _, s := range domain.AllScorers() {
		out[s] = domain.NewScorerWeightState(brandID, s)
	}

	rows, err := l.states.ListWeightStates(ctx, brandID)
	if err != nil {
		return out, fmt.Errorf("list weight states: %w", err)
	}
	for _, row := range rows {
		s, ok := domain.ParseScorer(row.Scorer)
		if !ok {
			logger.Warn("unknown_scorer_row_ignored", "brand_id", brandID, "scorer", row.Scorer)
			continue
		}
		// static weights come from code, not from the stored row
		row.StaticWeight = s.StaticWeight()
		out[s] = row
	}
	return out, nil
}

// Run recomputes the learned weights of a brand from every rewarded
// observation. With no rewarded observations the run is skipped.
func (l *Learner) Run(ctx context.Context, brandID string) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, fmt.Errorf("context error: %w", err)
	}

	current, err := l.Load(ctx, brandID)
	if err != nil {
		return RunResult{}, err
	}

	obs, err := l.observations.ListRewardedObservations(ctx, brandID)
	if err != nil {
		return RunResult{}, fmt.Errorf("list rewarded observations: %w", err)
	}

	next, res := Learn(current, obs, l.cfg, l.now().UTC())
	if !res.Updated {
		logger.Debug("weights_run_skipped",
			"trace_id", trace.TraceIDFromContext(ctx),
			"brand_id", brandID,
		)
		return res, nil
	}

	if err := l.states.SaveWeightStates(ctx, next[:]); err != nil {
		return RunResult{}, fmt.Errorf("save weight states: %w", err)
	}

	logger.Info("weights_run",
		"trace_id", trace.TraceIDFromContext(ctx),
		"brand_id", brandID,
		"observations", res.Observations,
		"phase", next[0].Phase(),
	)
	return res, nil
}

// Learn is one weekly update over an in-memory weight table.
func Learn(current States, observations []domain.ScorerObservation, cfg Config, now time.Time) (States, RunResult) {
	st := accumulate(observations)
	if st.n == 0 {
		return current, RunResult{}
	}

	targets, ok := normalizeToUnitMean(st.ridge(cfg.RidgeLambda))

	next := current
	for i := range next {
		if ok {
			next[i].LearnedWeight = NextLearned(current[i].LearnedWeight, targets[i], cfg)
		}
		if st.n > next[i].ObservationCount {
			next[i].ObservationCount = st.n
		}
		next[i].LastUpdate = now
	}

	if !ok {
		for i := range current {
			targets[i] = current[i].LearnedWeight
		}
	}
	return next, RunResult{Updated: true, Observations: st.n, Targets: targets}
}

// EffectiveWeights is the read path used on every ranking request.
func (l *Learner) EffectiveWeights(ctx context.Context, brandID string) (domain.ScoreVector, error) {
	states, err := l.Load(ctx, brandID)
	if err != nil {
		return domain.ScoreVector{}, err
	}
	var out domain.ScoreVector
	for i, st := range states {
		out[i] = Effective(st)
	}
	return out, nil
}

// Table is the audit view of a brand's weights.
func (l *Learner) Table(ctx context.Context, brandID string) ([]domain.ScorerWeightView, error) {
	states, err := l.Load(ctx, brandID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScorerWeightView, 0, len(states))
	for _, st := range states {
		out = append(out, View(st))
	}
	return out, nil
}
