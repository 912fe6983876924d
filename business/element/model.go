package element

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"

	"github.com/google/uuid"
)

// Model is the element reward model: one Beta posterior per
// (brand, dimension, value).
type Model struct {
	store Store
	now   func() time.Time
}

func NewModel(store Store) *Model {
	return &Model{store: store, now: time.Now}
}

// RecordOutcome folds one reward into the element posterior:
// alpha += reward, beta += 1-reward, observation_count += 1.
// A lost race is retried against the fresh row until it lands or ctx ends.
func (m *Model) RecordOutcome(ctx context.Context, brandID string, key domain.ElementKey, reward float64) error {
	_, err := m.record(ctx, brandID, key, reward, nil)
	return err
}

// ApplyRewardOutcome is RecordOutcome for a stored reward. It is applied at
// most once per (reward, element): a repeat call reports false and leaves
// the posterior untouched.
func (m *Model) ApplyRewardOutcome(ctx context.Context, rewardID uuid.UUID, brandID string, key domain.ElementKey, reward float64) (bool, error) {
	receipt := &domain.OutcomeReceipt{
		RewardID:  rewardID,
		BrandID:   brandID,
		Dimension: key.Dimension,
		Value:     key.Value,
	}
	return m.record(ctx, brandID, key, reward, receipt)
}

func (m *Model) record(ctx context.Context, brandID string, key domain.ElementKey, reward float64, receipt *domain.OutcomeReceipt) (bool, error) {
	if brandID == "" || key.Dimension == "" || key.Value == "" {
		return false, fmt.Errorf("%w: brand_id and element key are required", domain.ErrInvalidInput)
	}
	if math.IsNaN(reward) || reward < 0 || reward > 1 {
		return false, fmt.Errorf("%w: reward %v outside [0,1]", domain.ErrInvalidInput, reward)
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("record outcome for %s: %w", key, err)
		}

		ok, err := m.tryRecord(ctx, brandID, key, reward, receipt)
		if errors.Is(err, ErrAlreadyApplied) {
			ElementOutcomesSkippedTotal.Inc()
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if ok {
			ElementOutcomesTotal.Inc()
			if attempt > 0 {
				logger.Debug("element_outcome_retried",
					"brand_id", brandID,
					"element", key.String(),
					"attempts", attempt+1,
				)
			}
			return true, nil
		}
		ElementConflictRetriesTotal.Inc()
	}
}

func (m *Model) tryRecord(ctx context.Context, brandID string, key domain.ElementKey, reward float64, receipt *domain.OutcomeReceipt) (bool, error) {
	now := m.now().UTC()
	if receipt != nil {
		receipt.AppliedAt = now
	}

	cur, err := m.store.GetElement(ctx, brandID, key)
	if err != nil {
		return false, fmt.Errorf("load element %s: %w", key, err)
	}

	if cur == nil {
		el := domain.NewCreativeElement(brandID, key, now)
		applyReward(&el, reward, now)
		el.Version = 1
		inserted, err := m.store.InsertElement(ctx, &el, receipt)
		if err != nil {
			return false, fmt.Errorf("insert element %s: %w", key, err)
		}
		return inserted, nil
	}

	next := *cur
	applyReward(&next, reward, now)
	next.Version = cur.Version + 1
	swapped, err := m.store.CompareAndSwap(ctx, &next, cur.Version, receipt)
	if err != nil {
		return false, fmt.Errorf("update element %s: %w", key, err)
	}
	return swapped, nil
}

func applyReward(el *domain.CreativeElement, reward float64, now time.Time) {
	el.Alpha += reward
	el.Beta += 1 - reward
	el.ObservationCount++
	el.LastUpdated = now
}

// Score never fails for unseen elements; they get the uniform prior.
func (m *Model) Score(ctx context.Context, brandID string, key domain.ElementKey) (domain.ElementScore, error) {
	el, err := m.store.GetElement(ctx, brandID, key)
	if err != nil {
		return domain.ElementScore{}, fmt.Errorf("load element %s: %w", key, err)
	}
	if el == nil {
		return domain.PriorScore(key), nil
	}
	return el.Score(), nil
}

// Scores is a snapshot of every observed element of a brand.
func (m *Model) Scores(ctx context.Context, brandID string) (Snapshot, error) {
	els, err := m.store.ListElements(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	snap := make(Snapshot, len(els))
	for _, el := range els {
		snap[el.Key()] = el.Score()
	}
	return snap, nil
}

// Elements returns the raw posteriors of a brand.
func (m *Model) Elements(ctx context.Context, brandID string) ([]domain.CreativeElement, error) {
	els, err := m.store.ListElements(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	return els, nil
}

// Snapshot is a read-only view of element scores taken at one point in time.
type Snapshot map[domain.ElementKey]domain.ElementScore

func (s Snapshot) Score(key domain.ElementKey) domain.ElementScore {
	if sc, ok := s[key]; ok {
		return sc
	}
	return domain.PriorScore(key)
}
