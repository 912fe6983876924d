package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Runner executes the weekly learning pass: scorer weights, then element
// interactions, then whitespace. At most one pass per brand runs at a time.
type Runner struct {
	learner    WeightLearner
	detector   InteractionDetector
	whitespace WhitespaceRefresher
	brands     BrandLister
	locker     Locker
	cfg        Config
	now        func() time.Time

	mu    sync.Mutex
	local map[string]*sync.Mutex
}

// NewRunner accepts a nil locker; brand exclusion is then process-local.
func NewRunner(
	learner WeightLearner,
	detector InteractionDetector,
	whitespace WhitespaceRefresher,
	brands BrandLister,
	locker Locker,
	cfg Config,
) *Runner {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &Runner{
		learner:    learner,
		detector:   detector,
		whitespace: whitespace,
		brands:     brands,
		locker:     locker,
		cfg:        cfg,
		now:        time.Now,
		local:      make(map[string]*sync.Mutex),
	}
}

func (r *Runner) brandMutex(brandID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.local[brandID]
	if !ok {
		m = &sync.Mutex{}
		r.local[brandID] = m
	}
	return m
}

// RunBrand runs the weekly pass for one brand. It fails fast with
// domain.ErrRunInProgress when the brand is already being processed.
func (r *Runner) RunBrand(ctx context.Context, brandID string) (domain.BatchReport, error) {
	rep := domain.BatchReport{RunID: uuid.New(), BrandID: brandID, StartedAt: r.now().UTC()}
	if trace.TraceIDFromContext(ctx) == "" {
		ctx = trace.WithTraceID(ctx, rep.RunID.String())
	}

	m := r.brandMutex(brandID)
	if !m.TryLock() {
		BatchRunsTotal.WithLabelValues("locked").Inc()
		return rep, fmt.Errorf("%w: brand %s", domain.ErrRunInProgress, brandID)
	}
	defer m.Unlock()

	if r.locker != nil {
		release, ok, err := r.locker.Acquire(ctx, brandID, r.cfg.LockTTL)
		if err != nil {
			BatchRunsTotal.WithLabelValues("error").Inc()
			return rep, fmt.Errorf("acquire brand lock: %w", err)
		}
		if !ok {
			BatchRunsTotal.WithLabelValues("locked").Inc()
			return rep, fmt.Errorf("%w: brand %s is locked by another instance", domain.ErrRunInProgress, brandID)
		}
		defer func() {
			// the run context may already be cancelled; release regardless
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("brand_lock_release_failed", "brand_id", brandID, "error", err)
			}
		}()
	}

	err := r.run(ctx, brandID, &rep)
	rep.FinishedAt = r.now().UTC()
	BatchRunDuration.Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())

	if err != nil {
		rep.Error = err.Error()
		BatchRunsTotal.WithLabelValues("error").Inc()
		logger.Error("batch_run_failed",
			"trace_id", trace.TraceIDFromContext(ctx),
			"brand_id", brandID,
			"error", err,
		)
		return rep, err
	}

	BatchRunsTotal.WithLabelValues("ok").Inc()
	logger.Info("batch_run",
		"trace_id", trace.TraceIDFromContext(ctx),
		"brand_id", brandID,
		"weights_updated", rep.WeightsUpdated,
		"pairs_evaluated", rep.PairsEvaluated,
		"pairs_deferred", rep.PairsDeferred,
		"whitespace", rep.WhitespaceCount,
	)
	return rep, nil
}

func (r *Runner) run(ctx context.Context, brandID string, rep *domain.BatchReport) error {
	wres, err := r.learner.Run(ctx, brandID)
	if err != nil {
		return fmt.Errorf("scorer weights: %w", err)
	}
	rep.WeightsUpdated = wres.Updated
	rep.WeightObservation = wres.Observations

	ires, err := r.detector.Run(ctx, brandID)
	if err != nil {
		return fmt.Errorf("interactions: %w", err)
	}
	rep.PairsEvaluated = ires.Evaluated
	rep.PairsDeferred = ires.Deferred
	rep.PairsSurfaced = ires.Surfaced

	// whitespace is advisory; a failure here does not undo the learning above
	cands, err := r.whitespace.Refresh(ctx, brandID)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("whitespace: %w", err)
		}
		logger.Warn("whitespace_refresh_failed", "brand_id", brandID, "error", err)
		return nil
	}
	rep.WhitespaceCount = len(cands)
	return nil
}

// RunAll runs every brand, several at a time. A failing brand does not stop
// the others; its error is carried in its report. Only cancellation of ctx
// or a failure to list brands is returned as an error.
func (r *Runner) RunAll(ctx context.Context) ([]domain.BatchReport, error) {
	brands, err := r.brands.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	reports := make([]domain.BatchReport, len(brands))

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallelism)
	for i, brandID := range brands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				reports[i] = domain.BatchReport{BrandID: brandID, Error: err.Error()}
				return nil
			}
			rep, err := r.RunBrand(ctx, brandID)
			if err != nil {
				rep.Error = err.Error()
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return reports, fmt.Errorf("batch aborted: %w", err)
	}

	failed := 0
	for _, rep := range reports {
		if rep.Error != "" {
			failed++
		}
	}
	logger.Info("batch_all",
		"brands", len(brands),
		"failed", failed,
	)
	return reports, nil
}
