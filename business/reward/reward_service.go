package reward

import (
	"context"
	"fmt"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"
	"adaptiveCreative/pkg/trace"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RewardService struct {
	perfRepo     PerformanceRepository
	rewardRepo   RewardRepository
	elements     ElementRecorder
	observations ObservationRewarder
	settingsRepo SettingsRepository
	cfg          Config
	now          func() time.Time
}

func NewRewardService(
	perfRepo PerformanceRepository,
	rewardRepo RewardRepository,
	elements ElementRecorder,
	observations ObservationRewarder,
	settingsRepo SettingsRepository,
	cfg Config,
) *RewardService {
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = defaultClaimLease
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = defaultSweepBatchSize
	}
	return &RewardService{
		perfRepo:     perfRepo,
		rewardRepo:   rewardRepo,
		elements:     elements,
		observations: observations,
		settingsRepo: settingsRepo,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Ingest applies a performance push from the ad platform. When the push
// completes maturation the reward is computed in the same call. Pushes for
// ads whose reward already exists are accepted and ignored.
func (s *RewardService) Ingest(
	ctx context.Context,
	upd domain.PerformanceUpdate,
) (*domain.AdPerformanceRecord, *domain.RewardRecord, error) {

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context error: %w", err)
	}
	if err := validateUpdate(upd); err != nil {
		return nil, nil, err
	}

	rec, err := s.perfRepo.GetPerformance(ctx, upd.AdID)
	if err != nil {
		return nil, nil, fmt.Errorf("load performance: %w", err)
	}

	if rec == nil {
		rec = &domain.AdPerformanceRecord{
			AdID:                upd.AdID,
			BrandID:             upd.BrandID,
			Objective:           upd.Objective,
			ElementTags:         datatypes.JSONSlice[domain.ElementKey](dedupeTags(upd.ElementTags)),
			ScorerObservationID: upd.ScorerObservationID,
		}
	} else {
		if rec.BrandID != upd.BrandID || rec.Objective != upd.Objective {
			return nil, nil, fmt.Errorf("%w: ad %s cannot change brand or objective", domain.ErrInvalidInput, upd.AdID)
		}
		if rec.RewardComputed {
			existing, err := s.rewardRepo.GetReward(ctx, rec.AdID)
			if err != nil {
				return nil, nil, fmt.Errorf("load reward: %w", err)
			}
			return rec, existing, nil
		}
		if len(rec.ElementTags) == 0 && len(upd.ElementTags) > 0 {
			rec.ElementTags = datatypes.JSONSlice[domain.ElementKey](dedupeTags(upd.ElementTags))
		}
		if rec.ScorerObservationID == nil {
			rec.ScorerObservationID = upd.ScorerObservationID
		}
	}

	rec.Impressions = upd.Impressions
	rec.Clicks = upd.Clicks
	rec.Conversions = upd.Conversions
	rec.Spend = upd.Spend
	rec.Revenue = upd.Revenue
	rec.AgeDays = upd.AgeDays

	justMatured := applyMaturation(rec, s.now().UTC())

	if err := s.perfRepo.SavePerformance(ctx, rec); err != nil {
		return nil, nil, fmt.Errorf("save performance: %w", err)
	}

	if !rec.Matured() {
		return rec, nil, nil
	}

	if justMatured {
		logger.Debug("ad_matured",
			"trace_id", trace.TraceIDFromContext(ctx),
			"ad_id", rec.AdID,
			"brand_id", rec.BrandID,
		)
	}

	rr, err := s.computeFor(ctx, rec)
	if err != nil {
		return rec, nil, err
	}
	return rec, rr, nil
}

// Compute returns the reward of a matured ad, computing it on first call.
// Calls on an ad that already has a reward return the stored record.
func (s *RewardService) Compute(ctx context.Context, adID string) (*domain.RewardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	rec, err := s.perfRepo.GetPerformance(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("load performance: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: ad %s", domain.ErrNotFound, adID)
	}
	if !rec.Matured() {
		return nil, fmt.Errorf("%w: ad %s", domain.ErrNotMatured, adID)
	}
	return s.computeFor(ctx, rec)
}

// GetReward returns the stored reward record for an ad.
func (s *RewardService) GetReward(ctx context.Context, adID string) (*domain.RewardRecord, error) {
	rr, err := s.rewardRepo.GetReward(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("load reward: %w", err)
	}
	if rr == nil {
		return nil, fmt.Errorf("%w: reward for ad %s", domain.ErrNotFound, adID)
	}
	return rr, nil
}

// Sweep computes rewards for matured ads that have none yet and repairs
// rewards whose element updates were interrupted.
func (s *RewardService) Sweep(ctx context.Context) (int, error) {
	pending, err := s.perfRepo.ListMaturedPending(ctx, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list matured pending: %w", err)
	}

	done := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return done, fmt.Errorf("context error: %w", err)
		}
		rr, err := s.computeFor(ctx, &pending[i])
		if err != nil {
			logger.Warn("reward_sweep_failed",
				"ad_id", pending[i].AdID,
				"brand_id", pending[i].BrandID,
				"error", err,
			)
			continue
		}
		if rr != nil && rr.OutcomesAppliedAt != nil {
			done++
		}
	}

	logger.Info("reward_sweep",
		"trace_id", trace.TraceIDFromContext(ctx),
		"pending", len(pending),
		"completed", done,
	)
	return done, nil
}

func (s *RewardService) computeFor(ctx context.Context, rec *domain.AdPerformanceRecord) (*domain.RewardRecord, error) {
	existing, err := s.rewardRepo.GetReward(ctx, rec.AdID)
	if err != nil {
		return nil, fmt.Errorf("load reward: %w", err)
	}
	if existing != nil {
		return s.resume(ctx, rec, existing)
	}

	rr, err := s.buildReward(ctx, rec)
	if err != nil {
		return nil, err
	}

	created, err := s.rewardRepo.CreateReward(ctx, rr)
	if err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}
	if !created {
		// another worker won the race; its record is the only one
		existing, err := s.rewardRepo.GetReward(ctx, rec.AdID)
		if err != nil {
			return nil, fmt.Errorf("load reward: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("reward for ad %s vanished after conflict", rec.AdID)
		}
		return s.resume(ctx, rec, existing)
	}

	RewardsComputedTotal.WithLabelValues(string(rec.Objective)).Inc()
	RewardValue.Observe(rr.Reward)

	logger.Info("reward_computed",
		"trace_id", trace.TraceIDFromContext(ctx),
		"ad_id", rec.AdID,
		"brand_id", rec.BrandID,
		"objective", rec.Objective,
		"reward", rr.Reward,
		"ctr_norm", rr.CTRNorm,
		"conv_norm", rr.ConvNorm,
		"roas_norm", rr.ROASNorm,
	)

	if err := s.applyOutcomes(ctx, rec, rr); err != nil {
		return nil, err
	}
	return rr, nil
}

// resume handles an ad whose reward record already exists.
func (s *RewardService) resume(ctx context.Context, rec *domain.AdPerformanceRecord, rr *domain.RewardRecord) (*domain.RewardRecord, error) {
	if rr.OutcomesAppliedAt != nil {
		if !rec.RewardComputed {
			if err := s.perfRepo.MarkRewardComputed(ctx, rec.AdID); err != nil {
				return nil, fmt.Errorf("mark reward computed: %w", err)
			}
			rec.RewardComputed = true
		}
		return rr, nil
	}

	now := s.now().UTC()
	claimed, err := s.rewardRepo.ClaimStale(ctx, rr.ID, now.Add(-s.cfg.ClaimLease), now)
	if err != nil {
		return nil, fmt.Errorf("claim reward: %w", err)
	}
	if !claimed {
		// still held by the worker that created it
		return rr, nil
	}

	logger.Warn("reward_outcomes_reapplied",
		"ad_id", rec.AdID,
		"brand_id", rec.BrandID,
		"reward_id", rr.ID,
	)
	if err := s.applyOutcomes(ctx, rec, rr); err != nil {
		return nil, err
	}
	return rr, nil
}

func (s *RewardService) buildReward(ctx context.Context, rec *domain.AdPerformanceRecord) (*domain.RewardRecord, error) {
	window := s.cfg.BaselineWindow
	if s.settingsRepo != nil {
		st, ok, err := s.settingsRepo.GetSettings(ctx, rec.BrandID)
		switch {
		case err != nil:
			logger.Warn("reward_settings_load_failed",
				"trace_id", trace.TraceIDFromContext(ctx),
				"ad_id", rec.AdID,
				"brand_id", rec.BrandID,
				"baseline_window", window,
				"error", err,
			)
		case ok && st.BaselineWindow > 0:
			window = st.BaselineWindow
		}
	}

	var norm [3]float64
	for i, m := range []Metric{MetricCTR, MetricConvRate, MetricROAS} {
		history, err := s.perfRepo.ListReadyHistory(ctx, rec.BrandID, m, window)
		if err != nil {
			return nil, fmt.Errorf("load %s history: %w", m, err)
		}
		values := make([]float64, 0, len(history))
		for _, h := range history {
			values = append(values, m.Value(h))
		}
		norm[i] = NewBaseline(values).Normalize(m.Value(*rec))
	}

	r, err := Composite(rec.Objective, norm[0], norm[1], norm[2])
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return &domain.RewardRecord{
		ID:        uuid.New(),
		AdID:      rec.AdID,
		BrandID:   rec.BrandID,
		Objective: rec.Objective,
		Reward:    r,
		CTRNorm:   norm[0],
		ConvNorm:  norm[1],
		ROASNorm:  norm[2],
		RawCTR:    rec.CTR(),
		RawConv:   rec.ConversionRate(),
		RawROAS:   rec.ROAS(),
		ClaimedAt: now,
	}, nil
}

// applyOutcomes feeds the reward to every tagged element and to the scorer
// observation that produced the ad, then closes the record. Elements that
// already hold this reward from an interrupted earlier pass are skipped.
func (s *RewardService) applyOutcomes(ctx context.Context, rec *domain.AdPerformanceRecord, rr *domain.RewardRecord) error {
	for _, key := range dedupeTags(rec.ElementTags) {
		applied, err := s.elements.ApplyRewardOutcome(ctx, rr.ID, rec.BrandID, key, rr.Reward)
		if err != nil {
			return fmt.Errorf("record outcome for %s: %w", key, err)
		}
		if !applied {
			logger.Debug("reward_outcome_already_applied",
				"ad_id", rec.AdID,
				"reward_id", rr.ID,
				"element", key.String(),
			)
		}
	}

	now := s.now().UTC()
	if rec.ScorerObservationID != nil && s.observations != nil {
		if err := s.observations.FillReward(ctx, *rec.ScorerObservationID, rec.BrandID, rec.AdID, rr.Reward, now); err != nil {
			return fmt.Errorf("fill scorer observation: %w", err)
		}
	}

	if err := s.rewardRepo.MarkOutcomesApplied(ctx, rr.ID, now); err != nil {
		return fmt.Errorf("mark outcomes applied: %w", err)
	}
	rr.OutcomesAppliedAt = &now

	if err := s.perfRepo.MarkRewardComputed(ctx, rec.AdID); err != nil {
		return fmt.Errorf("mark reward computed: %w", err)
	}
	rec.RewardComputed = true
	return nil
}

func validateUpdate(upd domain.PerformanceUpdate) error {
	if upd.AdID == "" || upd.BrandID == "" {
		return fmt.Errorf("%w: ad_id and brand_id are required", domain.ErrInvalidInput)
	}
	if !upd.Objective.Valid() {
		return fmt.Errorf("%w: unknown campaign objective %q", domain.ErrInvalidInput, upd.Objective)
	}
	if upd.Impressions < 0 || upd.Clicks < 0 || upd.Conversions < 0 || upd.Spend < 0 || upd.Revenue < 0 || upd.AgeDays < 0 {
		return fmt.Errorf("%w: metrics must be non-negative", domain.ErrInvalidInput)
	}
	return nil
}

func dedupeTags(tags []domain.ElementKey) []domain.ElementKey {
	seen := make(map[domain.ElementKey]struct{}, len(tags))
	out := make([]domain.ElementKey, 0, len(tags))
	for _, t := range tags {
		if t.Dimension == "" || t.Value == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
