package interaction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"adaptiveCreative/business/element"
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/stats"
	"adaptiveCreative/pkg/trace"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Report summarises one detector run for a brand.
type Report struct {
	RunID     uuid.UUID
	Evaluated int
	Deferred  int
	Surfaced  int
	Effects   []domain.InteractionEffect
}

type Detector struct {
	ads    RewardedAdSource
	scores ScoreSource
	repo   Repository
	cfg    Config
	now    func() time.Time
}

func NewDetector(ads RewardedAdSource, scores ScoreSource, repo Repository, cfg Config) *Detector {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &Detector{ads: ads, scores: scores, repo: repo, cfg: cfg, now: time.Now}
}

// Run evaluates every pair with enough co-occurrences and replaces the
// brand's stored effects. Pairs that do not finish inside the time budget
// keep their previous stored result and are evaluated first next run.
// Cancelling ctx aborts the run without writing anything.
func (d *Detector) Run(ctx context.Context, brandID string) (Report, error) {
	start := d.now()
	defer func() {
		InteractionRunDuration.Observe(time.Since(start).Seconds())
	}()

	ads, err := d.ads.ListRewardedAds(ctx, brandID)
	if err != nil {
		return Report{}, fmt.Errorf("list rewarded ads: %w", err)
	}
	scores, err := d.scores.Scores(ctx, brandID)
	if err != nil {
		return Report{}, fmt.Errorf("load element scores: %w", err)
	}
	previous, err := d.repo.ListInteractions(ctx, brandID, false)
	if err != nil {
		return Report{}, fmt.Errorf("list previous interactions: %w", err)
	}

	budgetCtx := ctx
	if d.cfg.Budget > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, d.cfg.Budget)
		defer cancel()
	}

	rep, err := d.detect(ctx, budgetCtx, brandID, ads, scores, previous)
	if err != nil {
		return Report{}, err
	}

	if err := d.repo.ReplaceInteractions(ctx, brandID, rep.Effects); err != nil {
		return Report{}, fmt.Errorf("replace interactions: %w", err)
	}

	logger.Info("interaction_run",
		"trace_id", trace.TraceIDFromContext(ctx),
		"brand_id", brandID,
		"run_id", rep.RunID.String(),
		"ads", len(ads),
		"evaluated", rep.Evaluated,
		"deferred", rep.Deferred,
		"surfaced", rep.Surfaced,
	)
	if rep.Deferred > 0 {
		logger.Warn("interaction_budget_exceeded",
			"brand_id", brandID,
			"budget", d.cfg.Budget.String(),
			"deferred", rep.Deferred,
		)
	}
	return rep, nil
}

// detect runs the pair loop. Pairs not started or not finished when
// budgetCtx ends are deferred; ctx ending aborts the whole run.
func (d *Detector) detect(
	ctx context.Context,
	budgetCtx context.Context,
	brandID string,
	ads []domain.RewardedAd,
	scores element.Snapshot,
	previous []domain.InteractionEffect,
) (Report, error) {

	rep := Report{RunID: uuid.New()}
	now := d.now().UTC()

	rewards := make([]float64, 0, len(ads))
	for _, ad := range ads {
		rewards = append(rewards, ad.Reward)
	}
	baseline := stats.Mean(rewards)

	prevByPair := make(map[domain.ElementPair]domain.InteractionEffect, len(previous))
	for _, e := range previous {
		prevByPair[e.Pair()] = e
	}

	samples := eligiblePairs(coOccurrences(ads), d.cfg.MinCoOccurrence, prevByPair)

	results := make([]*domain.InteractionEffect, len(samples))
	var (
		mu       sync.Mutex
		deferred []domain.ElementPair
	)

	var g errgroup.Group
	g.SetLimit(d.cfg.Parallelism)
	for i := range samples {
		ps := samples[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if budgetCtx.Err() != nil {
				mu.Lock()
				deferred = append(deferred, ps.pair)
				mu.Unlock()
				return nil
			}

			eff, err := evaluatePair(budgetCtx, brandID, ps, baseline, scores, d.cfg)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mu.Lock()
				deferred = append(deferred, ps.pair)
				mu.Unlock()
				return nil
			}
			eff.RunID = rep.RunID
			eff.ComputedAt = now
			results[i] = &eff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Report{}, fmt.Errorf("interaction run aborted: %w", err)
		}
		return Report{}, err
	}

	effects := make([]domain.InteractionEffect, 0, len(samples))
	for _, r := range results {
		if r != nil {
			effects = append(effects, *r)
			InteractionPairsTotal.WithLabelValues(string(r.Classification)).Inc()
		}
	}
	rep.Evaluated = len(effects)
	rep.Deferred = len(deferred)
	InteractionPairsTotal.WithLabelValues("deferred").Add(float64(len(deferred)))

	// a deferred pair keeps last run's numbers until it is evaluated again
	for _, p := range deferred {
		if old, ok := prevByPair[p]; ok {
			old.ID = 0
			old.Surfaced = false
			effects = append(effects, old)
		}
	}

	rep.Surfaced = surface(effects, d.cfg.TopSurfaced)
	rep.Effects = effects
	return rep, nil
}

// eligiblePairs keeps pairs with at least minCount co-occurrences. Pairs
// never evaluated come first, then the ones evaluated longest ago, so a
// run cut short by the budget resumes where it stopped.
func eligiblePairs(
	co map[domain.ElementPair][]float64,
	minCount int,
	previous map[domain.ElementPair]domain.InteractionEffect,
) []pairSample {
	out := make([]pairSample, 0, len(co))
	for p, rewards := range co {
		if len(rewards) < minCount {
			continue
		}
		out = append(out, pairSample{pair: p, rewards: rewards})
	}

	sort.Slice(out, func(i, j int) bool {
		ti := previous[out[i].pair].ComputedAt
		tj := previous[out[j].pair].ComputedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return pairLess(out[i].pair, out[j].pair)
	})
	return out
}

func pairLess(a, b domain.ElementPair) bool {
	if a.A != b.A {
		return a.A.Less(b.A)
	}
	return a.B.Less(b.B)
}

// surface marks the top n synergy/conflict effects by |effect_size| and
// returns how many were marked.
func surface(effects []domain.InteractionEffect, n int) int {
	var idx []int
	for i := range effects {
		effects[i].Surfaced = false
		if effects[i].Classification != domain.ClassificationNone {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		ea, eb := effects[idx[a]], effects[idx[b]]
		ma, mb := math.Abs(ea.EffectSize), math.Abs(eb.EffectSize)
		if ma != mb {
			return ma > mb
		}
		return pairLess(ea.Pair(), eb.Pair())
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	for _, i := range idx {
		effects[i].Surfaced = true
	}
	return len(idx)
}

// List returns the surfaced effects, or every stored effect when all is set,
// strongest first.
func (d *Detector) List(ctx context.Context, brandID string, all bool) ([]domain.InteractionEffect, error) {
	effects, err := d.repo.ListInteractions(ctx, brandID, !all)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	sort.SliceStable(effects, func(i, j int) bool {
		return math.Abs(effects[i].EffectSize) > math.Abs(effects[j].EffectSize)
	})
	return effects, nil
}
