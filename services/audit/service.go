// Package audit records every governance state transition in an
// append-only log. Appends are synchronous: a transition is not
// considered committed until its audit entry is durable.
package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
)

// AuditService wraps the audit repository with serialization and
// metrics. Appends are serialized so entries from concurrent
// transitions get strictly ordered sequence numbers.
type AuditService struct {
	auditRepo repositories.AuditRepository
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu sync.Mutex
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// RecordTransition appends one audit entry for a governance state
// transition and returns it with its assigned sequence number.
func (s *AuditService) RecordTransition(
	ctx context.Context,
	signalID uuid.UUID,
	from, to models.GovernanceState,
	actor, rationale string,
) (*models.AuditEntry, error) {
	entry := models.NewAuditEntry(signalID, from, to, actor).WithRationale(rationale)

	s.mu.Lock()
	err := s.auditRepo.Append(ctx, entry)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("audit append failed",
			zap.String("signal_id", signalID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to append audit entry", err)
	}

	s.metrics.AuditEntries.Inc()
	s.logger.Debug("audit entry recorded",
		zap.String("signal_id", signalID.String()),
		zap.Uint64("sequence", entry.Sequence),
		zap.String("to", string(to)),
		zap.String("actor", actor))

	return entry, nil
}

// History returns the full transition history of one signal in
// chronological order.
func (s *AuditService) History(ctx context.Context, signalID uuid.UUID) ([]*models.AuditEntry, error) {
	entries, err := s.auditRepo.GetBySignalID(ctx, signalID)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to load audit history", err)
	}
	return entries, nil
}

// Query returns audit entries matching the filter in chronological
// order.
func (s *AuditService) Query(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditEntry, error) {
	entries, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to query audit log", err)
	}
	return entries, nil
}
