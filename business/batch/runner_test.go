//go:build !integration

package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"adaptiveCreative/business/interaction"
	"adaptiveCreative/business/weights"
	"adaptiveCreative/domain"

	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type fakeLearner struct {
	log   *callLog
	block chan struct{}
	fail  map[string]error
}

func (f *fakeLearner) Run(ctx context.Context, brandID string) (weights.RunResult, error) {
	f.log.add("weights:" + brandID)
	if f.block != nil {
		<-f.block
	}
	if err := f.fail[brandID]; err != nil {
		return weights.RunResult{}, err
	}
	return weights.RunResult{Updated: true, Observations: 42}, nil
}

type fakeDetector struct{ log *callLog }

func (f *fakeDetector) Run(ctx context.Context, brandID string) (interaction.Report, error) {
	f.log.add("interactions:" + brandID)
	return interaction.Report{Evaluated: 7, Deferred: 1, Surfaced: 3}, nil
}

type fakeWhitespace struct {
	log *callLog
	err error
}

func (f *fakeWhitespace) Refresh(ctx context.Context, brandID string) ([]domain.WhitespaceCandidate, error) {
	f.log.add("whitespace:" + brandID)
	if f.err != nil {
		return nil, f.err
	}
	return make([]domain.WhitespaceCandidate, 4), nil
}

type fakeBrands []string

func (f fakeBrands) ListBrands(ctx context.Context) ([]string, error) {
	return f, nil
}

type fakeLocker struct {
	held     map[string]bool
	released atomic.Int32
}

func (l *fakeLocker) Acquire(ctx context.Context, brandID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if l.held[brandID] {
		return nil, false, nil
	}
	return func(context.Context) error {
		l.released.Add(1)
		return nil
	}, true, nil
}

type fixture struct {
	log        *callLog
	learner    *fakeLearner
	whitespace *fakeWhitespace
	locker     *fakeLocker
	runner     *Runner
}

func newFixture(brands ...string) *fixture {
	f := &fixture{log: &callLog{}}
	f.learner = &fakeLearner{log: f.log, fail: map[string]error{}}
	f.whitespace = &fakeWhitespace{log: f.log}
	f.locker = &fakeLocker{held: map[string]bool{}}
	f.runner = NewRunner(f.learner, &fakeDetector{log: f.log}, f.whitespace, fakeBrands(brands), f.locker, DefaultConfig())
	return f
}

func TestRunBrandOrderAndReport(t *testing.T) {
	f := newFixture()

	rep, err := f.runner.RunBrand(context.Background(), "brand-1")
	require.NoError(t, err)
	require.Equal(t, []string{"weights:brand-1", "interactions:brand-1", "whitespace:brand-1"}, f.log.snapshot())

	require.True(t, rep.WeightsUpdated)
	require.EqualValues(t, 42, rep.WeightObservation)
	require.Equal(t, 7, rep.PairsEvaluated)
	require.Equal(t, 1, rep.PairsDeferred)
	require.Equal(t, 3, rep.PairsSurfaced)
	require.Equal(t, 4, rep.WhitespaceCount)
	require.Empty(t, rep.Error)
	require.False(t, rep.FinishedAt.Before(rep.StartedAt))
	require.EqualValues(t, 1, f.locker.released.Load())
}

func TestRunBrandRejectsConcurrentRun(t *testing.T) {
	f := newFixture()
	f.learner.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.runner.RunBrand(context.Background(), "brand-1")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(f.log.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.runner.RunBrand(context.Background(), "brand-1")
	require.ErrorIs(t, err, domain.ErrRunInProgress)

	// other brands are independent
	f.learner.fail["brand-2"] = errors.New("boom")
	_, err = f.runner.RunBrand(context.Background(), "brand-2")
	require.NotErrorIs(t, err, domain.ErrRunInProgress)

	close(f.learner.block)
	require.NoError(t, <-done)
}

func TestRunBrandRespectsDistributedLock(t *testing.T) {
	f := newFixture()
	f.locker.held["brand-1"] = true

	_, err := f.runner.RunBrand(context.Background(), "brand-1")
	require.ErrorIs(t, err, domain.ErrRunInProgress)
	require.Empty(t, f.log.snapshot())
}

func TestWhitespaceFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.whitespace.err = errors.New("redis down")

	rep, err := f.runner.RunBrand(context.Background(), "brand-1")
	require.NoError(t, err)
	require.Zero(t, rep.WhitespaceCount)
	require.Equal(t, 7, rep.PairsEvaluated)
}

func TestLearnerFailureStopsBrand(t *testing.T) {
	f := newFixture()
	f.learner.fail["brand-1"] = errors.New("db gone")

	rep, err := f.runner.RunBrand(context.Background(), "brand-1")
	require.Error(t, err)
	require.Contains(t, rep.Error, "db gone")
	require.Equal(t, []string{"weights:brand-1"}, f.log.snapshot())
	require.EqualValues(t, 1, f.locker.released.Load())
}

func TestRunAllIsolatesBrands(t *testing.T) {
	f := newFixture("a", "b", "c")
	f.learner.fail["b"] = errors.New("bad data")

	reports, err := f.runner.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	byBrand := map[string]domain.BatchReport{}
	for _, r := range reports {
		byBrand[r.BrandID] = r
	}
	require.Empty(t, byBrand["a"].Error)
	require.Contains(t, byBrand["b"].Error, "bad data")
	require.Empty(t, byBrand["c"].Error)
	require.Equal(t, 4, byBrand["c"].WhitespaceCount)
}

func TestRunAllStopsOnCancel(t *testing.T) {
	f := newFixture("a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.RunAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSchedulerTicksUntilStopped(t *testing.T) {
	f := newFixture("a")
	s := NewScheduler(f.runner, 10*time.Millisecond)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		for _, c := range f.log.snapshot() {
			if c == "whitespace:a" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	n := len(f.log.snapshot())
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, n, len(f.log.snapshot()))
}
