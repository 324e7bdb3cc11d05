// Package enrich scores raw signals with sentiment, category and
// confidence via the enrichment oracle.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
)

// EnrichService turns raw signals into enriched signals
type EnrichService struct {
	oracle              oracle.EnrichmentOracle
	confidenceThreshold int
	metrics             *observability.Metrics
	logger              *zap.Logger
}

// NewEnrichService creates an enrichment service. Signals whose
// confidence falls below confidenceThreshold are flagged as ambiguous.
func NewEnrichService(
	enrichmentOracle oracle.EnrichmentOracle,
	confidenceThreshold int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EnrichService {
	return &EnrichService{
		oracle:              enrichmentOracle,
		confidenceThreshold: confidenceThreshold,
		metrics:             metrics,
		logger:              logger,
	}
}

// Enrich scores one raw signal. Sentiment is clamped to [-1, 1] and
// confidence to [0, 100]; a category outside the known set rejects the
// signal rather than guessing.
func (s *EnrichService) Enrich(ctx context.Context, raw *models.RawSignal) (*models.EnrichedSignal, error) {
	start := time.Now()
	enrichment, err := s.oracle.Enrich(ctx, raw)
	s.metrics.OracleLatency.WithLabelValues(observability.OracleRoleEnrichment).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.OracleRequests.WithLabelValues(observability.OracleRoleEnrichment, "error").Inc()
		return nil, services.WrapExternal("signal enrichment failed", err)
	}
	s.metrics.OracleRequests.WithLabelValues(observability.OracleRoleEnrichment, "success").Inc()

	if !enrichment.Category.Valid() {
		return nil, services.ErrInvalidCategory.
			WithDetail("signal_id", raw.ID.String()).
			WithDetail("category", string(enrichment.Category))
	}

	enriched := &models.EnrichedSignal{
		RawSignal:      *raw,
		SentimentScore: clampFloat(enrichment.SentimentScore, -1, 1),
		Category:       enrichment.Category,
		Confidence:     clampInt(enrichment.Confidence, 0, 100),
	}
	enriched.AmbiguityFlagged = enriched.Confidence < s.confidenceThreshold

	if enriched.AmbiguityFlagged {
		s.logger.Debug("signal flagged as ambiguous",
			zap.String("signal_id", raw.ID.String()),
			zap.Int("confidence", enriched.Confidence),
			zap.Int("threshold", s.confidenceThreshold))
	}

	return enriched, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
