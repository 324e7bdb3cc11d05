package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
)

// BatchRunner runs one batch cycle
type BatchRunner interface {
	RunBatch(ctx context.Context) error
}

// Scheduler triggers batch cycles on a fixed interval. Ticks that
// arrive while a batch is still running are skipped, never queued.
type Scheduler struct {
	runner   BatchRunner
	interval time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger

	inFlight atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewScheduler creates a batch scheduler
func NewScheduler(runner BatchRunner, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Start launches the scheduling loop. An initial batch runs
// immediately, then one per interval.
func (s *Scheduler) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(loopCtx)

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
}

// Stop halts the scheduling loop and waits for any in-flight batch to
// finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one batch unless the previous one is still in flight
func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.SkippedTicks.Inc()
		s.metrics.Batches.WithLabelValues(observability.BatchOutcomeSkipped).Inc()
		s.logger.Warn("skipping tick, previous batch still running")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)

		// A batch that already started is allowed to finish even when
		// the scheduler is shutting down
		if err := s.runner.RunBatch(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("scheduled batch failed", zap.Error(err))
		}
	}()
}
