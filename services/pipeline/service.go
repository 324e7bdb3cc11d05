// Package pipeline drives the signal lifecycle end to end: produce a
// batch, enrich and reason each signal in parallel, then hand the
// survivors to governance one at a time.
package pipeline

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/enrich"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/factory"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/governance"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/reason"
)

// Config bounds a batch cycle
type Config struct {
	MinBatchSize     int
	MaxBatchSize     int
	MaxParallel      int
	FailureThreshold int
}

// PipelineService runs batch cycles through the full signal pipeline
type PipelineService struct {
	factory    *factory.FactoryService
	enricher   *enrich.EnrichService
	reasoner   *reason.ReasonService
	governance *governance.GovernanceService
	config     Config
	metrics    *observability.Metrics
	logger     *zap.Logger

	consecutiveFails atomic.Int32
}

// NewPipelineService creates a pipeline service
func NewPipelineService(
	factorySvc *factory.FactoryService,
	enricher *enrich.EnrichService,
	reasoner *reason.ReasonService,
	governanceSvc *governance.GovernanceService,
	config Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PipelineService {
	return &PipelineService{
		factory:    factorySvc,
		enricher:   enricher,
		reasoner:   reasoner,
		governance: governanceSvc,
		config:     config,
		metrics:    metrics,
		logger:     logger,
	}
}

// RunBatch executes one batch cycle with a randomized batch size.
// Signals that fail enrichment or reasoning are dropped individually;
// the batch itself fails only when production fails, storage fails, or
// nothing survives.
func (s *PipelineService) RunBatch(ctx context.Context) error {
	size := s.config.MinBatchSize
	if s.config.MaxBatchSize > s.config.MinBatchSize {
		size += rand.Intn(s.config.MaxBatchSize - s.config.MinBatchSize + 1)
	}

	start := time.Now()
	err := s.runBatch(ctx, size)
	s.metrics.BatchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		fails := s.consecutiveFails.Add(1)
		s.metrics.ConsecutiveBatchFails.Set(float64(fails))
		s.metrics.Batches.WithLabelValues(observability.BatchOutcomeFailed).Inc()
		s.logger.Error("batch cycle failed",
			zap.Int("batch_size", size),
			zap.Int32("consecutive_failures", fails),
			zap.Error(err))
		return err
	}

	s.consecutiveFails.Store(0)
	s.metrics.ConsecutiveBatchFails.Set(0)
	s.metrics.Batches.WithLabelValues(observability.BatchOutcomeCommitted).Inc()
	return nil
}

// Degraded reports whether the pipeline has failed enough consecutive
// batch cycles to be considered unhealthy.
func (s *PipelineService) Degraded() bool {
	return int(s.consecutiveFails.Load()) >= s.config.FailureThreshold
}

func (s *PipelineService) runBatch(ctx context.Context, size int) error {
	// nil mix lets the factory pick a random category per slot
	rawSignals, err := s.factory.ProduceBatch(ctx, size, nil)
	if err != nil {
		return err
	}
	if len(rawSignals) == 0 {
		return services.ErrInternal.WithDetail("reason", "no signals survived production")
	}

	reasonedSignals, err := s.processParallel(ctx, rawSignals)
	if err != nil {
		return err
	}
	if len(reasonedSignals) == 0 {
		return services.ErrInternal.WithDetail("reason", "no signals survived enrichment")
	}

	// Governance transitions are serialized so audit sequence numbers
	// follow ingestion order within a batch
	for _, reasoned := range reasonedSignals {
		if _, err := s.governance.Ingest(ctx, reasoned); err != nil {
			return err
		}
	}

	s.logger.Info("batch cycle committed",
		zap.Int("requested", size),
		zap.Int("ingested", len(reasonedSignals)))
	return nil
}

// processParallel enriches and reasons signals concurrently, bounded
// by MaxParallel. Oracle failures drop the affected signal; context
// cancellation aborts the whole batch.
func (s *PipelineService) processParallel(ctx context.Context, rawSignals []*models.RawSignal) ([]*models.ReasonedSignal, error) {
	results := make([]*models.ReasonedSignal, len(rawSignals))
	sem := semaphore.NewWeighted(int64(s.config.MaxParallel))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, raw := range rawSignals {
		i, raw := i, raw
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			enriched, err := s.enricher.Enrich(groupCtx, raw)
			if err != nil {
				s.dropSignal(raw, "enrichment_failed", err)
				return nil
			}

			reasoned, err := s.reasoner.Reason(groupCtx, enriched)
			if err != nil {
				s.dropSignal(raw, "reasoning_failed", err)
				return nil
			}

			results[i] = reasoned
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	survivors := make([]*models.ReasonedSignal, 0, len(results))
	for _, reasoned := range results {
		if reasoned != nil {
			survivors = append(survivors, reasoned)
		}
	}
	return survivors, nil
}

func (s *PipelineService) dropSignal(raw *models.RawSignal, reasonLabel string, err error) {
	s.metrics.SignalsDropped.WithLabelValues(reasonLabel).Inc()
	s.logger.Warn("dropping signal",
		zap.String("signal_id", raw.ID.String()),
		zap.String("reason", reasonLabel),
		zap.Error(err))
}
