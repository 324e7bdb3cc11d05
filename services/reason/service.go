// Package reason assesses the business impact of enriched signals via
// the reasoning oracle and decides which signals need a human review.
package reason

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
)

// ReasonService turns enriched signals into reasoned signals
type ReasonService struct {
	oracle  oracle.ReasoningOracle
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReasonService creates a reasoning service
func NewReasonService(reasoningOracle oracle.ReasoningOracle, metrics *observability.Metrics, logger *zap.Logger) *ReasonService {
	return &ReasonService{
		oracle:  reasoningOracle,
		metrics: metrics,
		logger:  logger,
	}
}

// Reason assesses one enriched signal. A signal is flagged for human
// review when its urgency is Critical or High, or when enrichment
// marked it as ambiguous; each cause is recorded as a flag reason.
func (s *ReasonService) Reason(ctx context.Context, enriched *models.EnrichedSignal) (*models.ReasonedSignal, error) {
	start := time.Now()
	reasoning, err := s.oracle.Reason(ctx, enriched)
	s.metrics.OracleLatency.WithLabelValues(observability.OracleRoleReasoning).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.OracleRequests.WithLabelValues(observability.OracleRoleReasoning, "error").Inc()
		return nil, services.WrapExternal("signal reasoning failed", err)
	}
	s.metrics.OracleRequests.WithLabelValues(observability.OracleRoleReasoning, "success").Inc()

	if !reasoning.Urgency.Valid() {
		return nil, services.ErrInvalidUrgency.
			WithDetail("signal_id", enriched.ID.String()).
			WithDetail("urgency", string(reasoning.Urgency))
	}

	reasoned := &models.ReasonedSignal{
		EnrichedSignal:   *enriched,
		Explanation:      reasoning.Explanation,
		ImpactAssessment: reasoning.ImpactAssessment,
		SuggestedAction:  reasoning.SuggestedAction,
		Urgency:          reasoning.Urgency,
	}

	if reasoned.Urgency == models.UrgencyCritical || reasoned.Urgency == models.UrgencyHigh {
		reasoned.FlagReasons = append(reasoned.FlagReasons, models.FlagReasonUrgency)
	}
	if reasoned.AmbiguityFlagged {
		reasoned.FlagReasons = append(reasoned.FlagReasons, models.FlagReasonAmbiguity)
	}
	reasoned.FlaggedForReview = len(reasoned.FlagReasons) > 0

	if reasoned.FlaggedForReview {
		s.logger.Info("signal flagged for review",
			zap.String("signal_id", enriched.ID.String()),
			zap.String("urgency", string(reasoned.Urgency)),
			zap.Any("reasons", reasoned.FlagReasons))
	}

	return reasoned, nil
}
