package batch

import (
	"context"
	"sync"
	"time"

	"adaptiveCreative/pkg/logger"
)

// Scheduler triggers Runner.RunAll on a fixed interval.
type Scheduler struct {
	runner   *Runner
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(runner *Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	return &Scheduler{runner: runner, interval: interval}
}

// Start returns immediately; the first run happens one interval later.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.runner == nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logger.Info("batch_scheduler_started", "interval", s.interval.String())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) tick(ctx context.Context) {
	reports, err := s.runner.RunAll(ctx)
	if err != nil {
		logger.Warn("batch_scheduler_run_failed", "error", err)
		return
	}
	logger.Debug("batch_scheduler_tick", "brands", len(reports))
}

// Stop cancels an in-flight run and waits for the loop to exit.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
