//go:build !integration

package reward

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"adaptiveCreative/domain"

	"github.com/google/uuid"
)

// ---- fakes ----

type fakePerfRepo struct {
	mu         sync.Mutex
	recs       map[string]domain.AdPerformanceRecord
	lastWindow int
}

func newFakePerfRepo() *fakePerfRepo {
	return &fakePerfRepo{recs: make(map[string]domain.AdPerformanceRecord)}
}

func (f *fakePerfRepo) GetPerformance(ctx context.Context, adID string) (*domain.AdPerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[adID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakePerfRepo) SavePerformance(ctx context.Context, rec *domain.AdPerformanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[rec.AdID] = *rec
	return nil
}

func (f *fakePerfRepo) ListReadyHistory(ctx context.Context, brandID string, metric Metric, window int) ([]domain.AdPerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWindow = window
	var out []domain.AdPerformanceRecord
	for _, r := range f.recs {
		if r.BrandID != brandID {
			continue
		}
		ready := (metric == MetricCTR && r.CtrReady) ||
			(metric == MetricConvRate && r.ConvReady) ||
			(metric == MetricROAS && r.RoasReady)
		if ready {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePerfRepo) ListMaturedPending(ctx context.Context, limit int) ([]domain.AdPerformanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AdPerformanceRecord
	for _, r := range f.recs {
		if r.Matured() && !r.RewardComputed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePerfRepo) MarkRewardComputed(ctx context.Context, adID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.recs[adID]
	r.RewardComputed = true
	f.recs[adID] = r
	return nil
}

type fakeRewardRepo struct {
	mu   sync.Mutex
	recs map[string]domain.RewardRecord
}

func newFakeRewardRepo() *fakeRewardRepo {
	return &fakeRewardRepo{recs: make(map[string]domain.RewardRecord)}
}

func (f *fakeRewardRepo) GetReward(ctx context.Context, adID string) (*domain.RewardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[adID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeRewardRepo) CreateReward(ctx context.Context, rec *domain.RewardRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.recs[rec.AdID]; ok {
		return false, nil
	}
	f.recs[rec.AdID] = *rec
	return true, nil
}

func (f *fakeRewardRepo) ClaimStale(ctx context.Context, id uuid.UUID, staleBefore, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, r := range f.recs {
		if r.ID == id && r.OutcomesAppliedAt == nil && r.ClaimedAt.Before(staleBefore) {
			r.ClaimedAt = now
			f.recs[k] = r
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRewardRepo) MarkOutcomesApplied(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, r := range f.recs {
		if r.ID == id {
			r.OutcomesAppliedAt = &at
			f.recs[k] = r
		}
	}
	return nil
}

type outcomeCall struct {
	rewardID uuid.UUID
	brandID  string
	key      domain.ElementKey
	reward   float64
}

type appliedKey struct {
	rewardID uuid.UUID
	key      domain.ElementKey
}

type fakeElements struct {
	mu      sync.Mutex
	calls   []outcomeCall
	applied map[appliedKey]struct{}
	// keys listed here fail on their next update only
	failOnce map[domain.ElementKey]bool
}

func (f *fakeElements) ApplyRewardOutcome(ctx context.Context, rewardID uuid.UUID, brandID string, key domain.ElementKey, reward float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnce[key] {
		delete(f.failOnce, key)
		return false, errors.New("element store unavailable")
	}
	if f.applied == nil {
		f.applied = make(map[appliedKey]struct{})
	}
	k := appliedKey{rewardID: rewardID, key: key}
	if _, ok := f.applied[k]; ok {
		return false, nil
	}
	f.applied[k] = struct{}{}
	f.calls = append(f.calls, outcomeCall{rewardID: rewardID, brandID: brandID, key: key, reward: reward})
	return true, nil
}

func (f *fakeElements) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeElements) countFor(key domain.ElementKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.key == key {
			n++
		}
	}
	return n
}

type fakeObservations struct {
	filled map[uuid.UUID]float64
	brands map[uuid.UUID]string
}

func (f *fakeObservations) FillReward(ctx context.Context, observationID uuid.UUID, brandID, adID string, reward float64, at time.Time) error {
	f.filled[observationID] = reward
	f.brands[observationID] = brandID
	return nil
}

type fakeSettings struct {
	settings domain.BrandSettings
	err      error
}

func (f *fakeSettings) GetSettings(ctx context.Context, brandID string) (domain.BrandSettings, bool, error) {
	if f.err != nil {
		return domain.BrandSettings{}, false, f.err
	}
	return f.settings, true, nil
}

type harness struct {
	svc     *RewardService
	perf    *fakePerfRepo
	rewards *fakeRewardRepo
	elems   *fakeElements
	obs     *fakeObservations
}

func newHarness() *harness {
	h := &harness{
		perf:    newFakePerfRepo(),
		rewards: newFakeRewardRepo(),
		elems:   &fakeElements{},
		obs:     &fakeObservations{filled: map[uuid.UUID]float64{}, brands: map[uuid.UUID]string{}},
	}
	h.svc = NewRewardService(h.perf, h.rewards, h.elems, h.obs, nil, DefaultConfig())
	return h
}

func update(adID string, ageDays int, impressions int64) domain.PerformanceUpdate {
	return domain.PerformanceUpdate{
		AdID:        adID,
		BrandID:     "brand-1",
		Objective:   domain.ObjectiveConversions,
		Impressions: impressions,
		Clicks:      impressions / 20,
		Conversions: impressions / 200,
		Spend:       100,
		Revenue:     250,
		AgeDays:     ageDays,
		ElementTags: []domain.ElementKey{
			{Dimension: "template_category", Value: "quote_card"},
			{Dimension: "tone", Value: "playful"},
			{Dimension: "tone", Value: "playful"},
		},
	}
}

// ---- tests ----

func TestCompositeObjectiveTable(t *testing.T) {
	tests := []struct {
		objective domain.CampaignObjective
		ctr       float64
		conv      float64
		roas      float64
		want      float64
	}{
		{domain.ObjectiveAwareness, 1, 0, 0, 0.70},
		{domain.ObjectiveTraffic, 1, 0, 0, 0.60},
		{domain.ObjectiveConversions, 0, 1, 0, 0.50},
		{domain.ObjectiveSales, 0, 0, 1, 0.50},
		{domain.ObjectiveSales, 1, 1, 1, 1.0},
		{domain.ObjectiveConversions, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		got, err := Composite(tt.objective, tt.ctr, tt.conv, tt.roas)
		if err != nil {
			t.Fatalf("Composite(%s) error = %v", tt.objective, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Composite(%s, %v, %v, %v) = %v, want %v", tt.objective, tt.ctr, tt.conv, tt.roas, got, tt.want)
		}
	}
}

func TestCompositeUnknownObjective(t *testing.T) {
	if _, err := Composite("reach", 1, 1, 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBaselineNormalize(t *testing.T) {
	b := NewBaseline([]float64{0.01, 0.02, 0.03, 0.04, 0.05})

	if got := b.Normalize(b.P25); got != 0 {
		t.Errorf("Normalize(p25) = %v, want 0", got)
	}
	if got := b.Normalize(b.P75); got != 1 {
		t.Errorf("Normalize(p75) = %v, want 1", got)
	}
	if got := b.Normalize(0.03); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Normalize(median) = %v, want 0.5", got)
	}
	if got := b.Normalize(1); got != 1 {
		t.Errorf("Normalize(above) = %v, want 1", got)
	}
	if got := b.Normalize(-1); got != 0 {
		t.Errorf("Normalize(below) = %v, want 0", got)
	}
}

func TestBaselineDegenerate(t *testing.T) {
	for _, values := range [][]float64{nil, {0.2}, {0.3, 0.3, 0.3}} {
		b := NewBaseline(values)
		if !b.Degenerate() {
			t.Fatalf("baseline over %v should be degenerate", values)
		}
		for _, x := range []float64{-5, 0, 0.3, 42} {
			if got := b.Normalize(x); got != 0.5 {
				t.Errorf("degenerate Normalize(%v) = %v, want 0.5", x, got)
			}
		}
	}
}

func TestMaturationGates(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		age         int
		impressions int64
		ctr         bool
		conv        bool
		roas        bool
	}{
		{"too young", 2, 10000, false, false, false},
		{"ctr only", 3, 500, true, false, false},
		{"ctr and conv", 7, 500, true, true, false},
		{"all", 10, 500, true, true, true},
		{"not enough impressions", 30, 499, false, false, false},
	}
	for _, tt := range tests {
		rec := &domain.AdPerformanceRecord{AgeDays: tt.age, Impressions: tt.impressions}
		applyMaturation(rec, now)
		if rec.CtrReady != tt.ctr || rec.ConvReady != tt.conv || rec.RoasReady != tt.roas {
			t.Errorf("%s: flags = (%v,%v,%v), want (%v,%v,%v)",
				tt.name, rec.CtrReady, rec.ConvReady, rec.RoasReady, tt.ctr, tt.conv, tt.roas)
		}
		if rec.CtrReady && (rec.CtrReadyAt == nil || !rec.CtrReadyAt.Equal(now)) {
			t.Errorf("%s: ctr_ready_at not stamped", tt.name)
		}
	}
}

func TestMaturationCompletesOnce(t *testing.T) {
	now := time.Now()
	rec := &domain.AdPerformanceRecord{AgeDays: 10, Impressions: 600}

	if !applyMaturation(rec, now) {
		t.Fatal("first pass should complete maturation")
	}
	if applyMaturation(rec, now.Add(time.Hour)) {
		t.Fatal("second pass must not report completion again")
	}
	if !rec.CtrReadyAt.Equal(now) {
		t.Fatal("ready timestamp must not move once set")
	}
}

func TestIngestComputesRewardOnceWhenMatured(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	obsID := uuid.New()

	upd := update("ad-1", 5, 800)
	upd.ScorerObservationID = &obsID
	rec, rr, err := h.svc.Ingest(ctx, upd)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rr != nil {
		t.Fatal("reward must not exist before all gates pass")
	}
	if !rec.CtrReady || rec.RoasReady {
		t.Fatalf("unexpected flags after day 5: %+v", rec)
	}

	_, rr, err = h.svc.Ingest(ctx, update("ad-1", 10, 1200))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rr == nil {
		t.Fatal("reward should be computed once matured")
	}
	// a single ad gives a degenerate baseline for every metric
	if math.Abs(rr.Reward-0.5) > 1e-9 {
		t.Errorf("reward = %v, want 0.5", rr.Reward)
	}
	if got := h.elems.count(); got != 2 {
		t.Errorf("element updates = %d, want 2 (duplicate tag collapsed)", got)
	}
	if got, ok := h.obs.filled[obsID]; !ok || got != rr.Reward {
		t.Errorf("scorer observation reward = %v (filled=%v), want %v", got, ok, rr.Reward)
	}
	if got := h.obs.brands[obsID]; got != "brand-1" {
		t.Errorf("scorer observation filled for brand %q, want brand-1", got)
	}

	first := rr.ID
	_, rr, err = h.svc.Ingest(ctx, update("ad-1", 12, 5000))
	if err != nil {
		t.Fatalf("Ingest() after reward error = %v", err)
	}
	if rr == nil || rr.ID != first {
		t.Fatal("later pushes must return the existing reward")
	}
	if got := h.elems.count(); got != 2 {
		t.Errorf("element updates after re-push = %d, want 2", got)
	}

	again, err := h.svc.Compute(ctx, "ad-1")
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if again.ID != first {
		t.Error("Compute on rewarded ad must be a no-op returning the stored record")
	}
	stored, _ := h.perf.GetPerformance(ctx, "ad-1")
	if stored.Impressions != 1200 {
		t.Errorf("rewarded record changed: impressions = %d", stored.Impressions)
	}
}

func TestRewardUsesBrandBaseline(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	// spread of CTRs across five matured ads
	for i, clicks := range []int64{10, 20, 30, 40, 50} {
		upd := update("hist-"+string(rune('a'+i)), 10, 1000)
		upd.Objective = domain.ObjectiveAwareness
		upd.Clicks = clicks
		upd.ElementTags = nil
		if _, _, err := h.svc.Ingest(ctx, upd); err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
	}

	rr, err := h.svc.GetReward(ctx, "hist-e")
	if err != nil {
		t.Fatalf("GetReward() error = %v", err)
	}
	if rr.CTRNorm != 1 {
		t.Errorf("top CTR normalised = %v, want 1", rr.CTRNorm)
	}
}

func TestComputeErrors(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if _, err := h.svc.Compute(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown ad: got %v, want ErrNotFound", err)
	}

	if _, _, err := h.svc.Ingest(ctx, update("young", 1, 100)); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if _, err := h.svc.Compute(ctx, "young"); !errors.Is(err, domain.ErrNotMatured) {
		t.Errorf("young ad: got %v, want ErrNotMatured", err)
	}

	bad := update("bad", 1, 1)
	bad.Objective = "reach"
	if _, _, err := h.svc.Ingest(ctx, bad); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad objective: got %v, want ErrInvalidInput", err)
	}
}

func TestSweepReappliesStaleClaims(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	rec := domain.AdPerformanceRecord{
		AdID:        "ad-stale",
		BrandID:     "brand-1",
		Objective:   domain.ObjectiveSales,
		ElementTags: []domain.ElementKey{{Dimension: "cta", Value: "shop_now"}},
		Impressions: 900,
		AgeDays:     11,
		CtrReady:    true,
		ConvReady:   true,
		RoasReady:   true,
	}
	_ = h.perf.SavePerformance(ctx, &rec)

	// a worker created the reward and died before the element updates
	_, _ = h.rewards.CreateReward(ctx, &domain.RewardRecord{
		ID:        uuid.New(),
		AdID:      "ad-stale",
		BrandID:   "brand-1",
		Reward:    0.42,
		ClaimedAt: time.Now().Add(-time.Hour),
	})

	n, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Sweep() completed = %d, want 1", n)
	}
	if h.elems.count() != 1 || h.elems.calls[0].reward != 0.42 {
		t.Fatalf("expected one element update with the stored reward, got %+v", h.elems.calls)
	}

	stored, _ := h.perf.GetPerformance(ctx, "ad-stale")
	if !stored.RewardComputed {
		t.Fatal("ad should be closed after sweep")
	}
}

func TestSweepLeavesFreshClaimsAlone(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	rec := domain.AdPerformanceRecord{
		AdID: "ad-busy", BrandID: "brand-1", Objective: domain.ObjectiveSales,
		CtrReady: true, ConvReady: true, RoasReady: true,
	}
	_ = h.perf.SavePerformance(ctx, &rec)
	_, _ = h.rewards.CreateReward(ctx, &domain.RewardRecord{
		ID: uuid.New(), AdID: "ad-busy", BrandID: "brand-1", Reward: 0.3, ClaimedAt: time.Now(),
	})

	n, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 0 || h.elems.count() != 0 {
		t.Fatalf("fresh claim must not be re-applied (completed=%d, updates=%d)", n, h.elems.count())
	}
}

func TestSweepAfterPartialFailureAppliesEachElementOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.svc.now = func() time.Time { return clock }

	quoteCard := domain.ElementKey{Dimension: "template_category", Value: "quote_card"}
	playful := domain.ElementKey{Dimension: "tone", Value: "playful"}
	h.elems.failOnce = map[domain.ElementKey]bool{playful: true}

	// quote_card is updated, then the playful update fails
	if _, _, err := h.svc.Ingest(ctx, update("ad-1", 10, 1200)); err == nil {
		t.Fatal("Ingest() should surface the failed element update")
	}
	if got := h.elems.countFor(quoteCard); got != 1 {
		t.Fatalf("quote_card updates before sweep = %d, want 1", got)
	}

	clock = clock.Add(20 * time.Minute)
	n, err := h.svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Sweep() completed = %d, want 1", n)
	}

	for _, key := range []domain.ElementKey{quoteCard, playful} {
		if got := h.elems.countFor(key); got != 1 {
			t.Errorf("%s updates = %d, want exactly 1", key, got)
		}
	}
	rr, err := h.svc.GetReward(ctx, "ad-1")
	if err != nil {
		t.Fatalf("GetReward() error = %v", err)
	}
	if rr.OutcomesAppliedAt == nil {
		t.Fatal("outcomes should be marked applied after the sweep")
	}

	// a second sweep finds nothing left to do
	if n, err := h.svc.Sweep(ctx); err != nil || n != 0 {
		t.Fatalf("second Sweep() = (%d, %v), want (0, nil)", n, err)
	}
	if got := h.elems.count(); got != 2 {
		t.Errorf("total element updates = %d, want 2", got)
	}
}

func TestRewardFallsBackWhenSettingsFail(t *testing.T) {
	h := newHarness()
	h.svc.settingsRepo = &fakeSettings{err: errors.New("settings table locked")}
	ctx := context.Background()

	_, rr, err := h.svc.Ingest(ctx, update("ad-1", 10, 1200))
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rr == nil {
		t.Fatal("reward should still be computed with the default baseline window")
	}
	if math.Abs(rr.Reward-0.5) > 1e-9 {
		t.Errorf("reward = %v, want 0.5", rr.Reward)
	}
	if h.perf.lastWindow != DefaultConfig().BaselineWindow {
		t.Errorf("baseline window = %d, want the configured default", h.perf.lastWindow)
	}
}

func TestRewardUsesBrandBaselineWindow(t *testing.T) {
	h := newHarness()
	h.svc.settingsRepo = &fakeSettings{settings: domain.BrandSettings{BrandID: "brand-1", BaselineWindow: 2}}
	ctx := context.Background()

	for i, clicks := range []int64{10, 20, 30} {
		upd := update("win-"+string(rune('a'+i)), 10, 1000)
		upd.Objective = domain.ObjectiveAwareness
		upd.Clicks = clicks
		upd.ElementTags = nil
		if _, _, err := h.svc.Ingest(ctx, upd); err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
	}
	if _, err := h.svc.GetReward(ctx, "win-c"); err != nil {
		t.Fatalf("GetReward() error = %v", err)
	}
	if h.perf.lastWindow != 2 {
		t.Errorf("baseline window = %d, want the brand's 2", h.perf.lastWindow)
	}
}
