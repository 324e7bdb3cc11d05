// Package governance owns the signal review state machine. Signals
// enter as pending, are flagged for human review or auto-archived,
// and every committed transition is recorded in the audit log before
// it is considered final.
package governance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/audit"
)

// SystemActor marks transitions performed by the pipeline itself
const SystemActor = "system"

// legalTransitions maps each governance state to the states it may
// move to. Approved and declined signals can only be archived;
// archived is terminal.
var legalTransitions = map[models.GovernanceState][]models.GovernanceState{
	models.StatePending:  {models.StateFlagged, models.StateArchived},
	models.StateFlagged:  {models.StateApproved, models.StateDeclined},
	models.StateApproved: {models.StateArchived},
	models.StateDeclined: {models.StateArchived},
}

func transitionAllowed(from, to models.GovernanceState) bool {
	for _, allowed := range legalTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// GovernanceService applies governance transitions to signals
type GovernanceService struct {
	signalRepo repositories.SignalRepository
	auditSvc   *audit.AuditService
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewGovernanceService creates a new governance service
func NewGovernanceService(
	signalRepo repositories.SignalRepository,
	auditSvc *audit.AuditService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *GovernanceService {
	return &GovernanceService{
		signalRepo: signalRepo,
		auditSvc:   auditSvc,
		metrics:    metrics,
		logger:     logger,
	}
}

// Ingest persists a reasoned signal as pending and immediately routes
// it: flagged signals wait for a human decision, everything else is
// auto-archived. If the initial audit entry cannot be written the
// signal is removed again so the log never misses an ingestion.
func (s *GovernanceService) Ingest(ctx context.Context, reasoned *models.ReasonedSignal) (*models.Signal, error) {
	now := time.Now().UTC()
	signal := &models.Signal{
		ReasonedSignal:  *reasoned,
		GovernanceState: models.StatePending,
		UpdatedAt:       now,
	}

	if err := s.signalRepo.Insert(ctx, signal); err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to persist signal", err)
	}

	if _, err := s.auditSvc.RecordTransition(ctx, signal.ID, "", models.StatePending, SystemActor, "signal ingested"); err != nil {
		if removeErr := s.signalRepo.Remove(ctx, signal.ID); removeErr != nil {
			s.logger.Error("failed to unwind signal after audit failure",
				zap.String("signal_id", signal.ID.String()),
				zap.Error(removeErr))
		}
		return nil, services.WrapError(services.ErrorTypeInternal, "audit failed during ingest", err)
	}

	target := models.StateArchived
	rationale := "no review required"
	if reasoned.FlaggedForReview {
		target = models.StateFlagged
		rationale = flagRationale(reasoned.FlagReasons)
	}

	if err := s.commit(ctx, signal, signal.GovernanceState, target, SystemActor, rationale, nil); err != nil {
		return nil, err
	}

	s.metrics.SignalsIngested.WithLabelValues(string(signal.Category), string(signal.GovernanceState)).Inc()
	s.logger.Info("signal ingested",
		zap.String("signal_id", signal.ID.String()),
		zap.String("category", string(signal.Category)),
		zap.String("state", string(signal.GovernanceState)))

	return signal, nil
}

// Decide applies a human approve or decline decision to a flagged
// signal. The actor must be a named human operator; deciding a signal
// already in the target state is a no-op.
func (s *GovernanceService) Decide(ctx context.Context, signalID uuid.UUID, target models.GovernanceState, actor, rationale string) (*models.Signal, error) {
	if strings.TrimSpace(actor) == "" || actor == SystemActor {
		return nil, services.ErrEmptyActor.WithDetail("signal_id", signalID.String())
	}
	if target != models.StateApproved && target != models.StateDeclined {
		return nil, services.ErrInvalidInput.
			WithDetail("target_state", string(target)).
			WithDetail("reason", "decision must be approved or declined")
	}

	return s.transition(ctx, signalID, target, actor, rationale, true)
}

// Archive moves an approved, declined or pending signal into the
// terminal archived state.
func (s *GovernanceService) Archive(ctx context.Context, signalID uuid.UUID, actor, rationale string) (*models.Signal, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, services.ErrEmptyActor.WithDetail("signal_id", signalID.String())
	}

	return s.transition(ctx, signalID, models.StateArchived, actor, rationale, false)
}

// Get retrieves a signal by ID
func (s *GovernanceService) Get(ctx context.Context, signalID uuid.UUID) (*models.Signal, error) {
	signal, err := s.signalRepo.GetByID(ctx, signalID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrSignalNotFound.WithDetail("signal_id", signalID.String())
		}
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to load signal", err)
	}
	return signal, nil
}

// List retrieves signals matching the filter, newest first
func (s *GovernanceService) List(ctx context.Context, filter repositories.SignalFilter) ([]*models.Signal, error) {
	signals, err := s.signalRepo.List(ctx, filter)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to list signals", err)
	}
	return signals, nil
}

// CountByState returns the number of signals in each governance state
func (s *GovernanceService) CountByState(ctx context.Context) (map[models.GovernanceState]int, error) {
	counts, err := s.signalRepo.CountByState(ctx)
	if err != nil {
		return nil, services.WrapError(services.ErrorTypeInternal, "failed to count signals", err)
	}
	return counts, nil
}

// transition performs one locked, audited state transition
func (s *GovernanceService) transition(ctx context.Context, signalID uuid.UUID, target models.GovernanceState, actor, rationale string, withDecision bool) (*models.Signal, error) {
	lock := s.lockFor(signalID)
	if !lock.TryLock() {
		s.metrics.GovernanceConflicts.Inc()
		return nil, services.ErrConcurrentTransitionConflict.WithDetail("signal_id", signalID.String())
	}
	defer lock.Unlock()

	signal, err := s.Get(ctx, signalID)
	if err != nil {
		return nil, err
	}

	// Repeating a decision that already took effect is not an error
	if signal.GovernanceState == target {
		return signal, nil
	}

	if !transitionAllowed(signal.GovernanceState, target) {
		return nil, services.ErrInvalidTransition.
			WithDetail("signal_id", signalID.String()).
			WithDetail("from", string(signal.GovernanceState)).
			WithDetail("to", string(target))
	}

	// Non-decision transitions carry the existing decision forward so
	// archiving never erases who approved or declined the signal
	decision := signal.Decision
	if withDecision {
		decision = &models.DecisionMetadata{
			Actor:     actor,
			Rationale: rationale,
			DecidedAt: time.Now().UTC(),
		}
	}

	if err := s.commit(ctx, signal, signal.GovernanceState, target, actor, rationale, decision); err != nil {
		return nil, err
	}

	return signal, nil
}

// commit updates the stored state and appends the audit entry. The
// transition is not final until both succeed: when the audit append
// fails the state update is compensated back to where it was.
func (s *GovernanceService) commit(ctx context.Context, signal *models.Signal, from, to models.GovernanceState, actor, rationale string, decision *models.DecisionMetadata) error {
	if err := s.signalRepo.UpdateGovernance(ctx, signal.ID, from, to, decision); err != nil {
		if errors.Is(err, repositories.ErrStaleState) {
			s.metrics.GovernanceConflicts.Inc()
			return services.ErrStaleGovernanceState.
				WithDetail("signal_id", signal.ID.String()).
				WithDetail("expected", string(from))
		}
		return services.WrapError(services.ErrorTypeInternal, "failed to update governance state", err)
	}

	if _, err := s.auditSvc.RecordTransition(ctx, signal.ID, from, to, actor, rationale); err != nil {
		if revertErr := s.signalRepo.UpdateGovernance(ctx, signal.ID, to, from, signal.Decision); revertErr != nil {
			s.logger.Error("failed to revert transition after audit failure",
				zap.String("signal_id", signal.ID.String()),
				zap.String("from", string(from)),
				zap.String("to", string(to)),
				zap.Error(revertErr))
		}
		return services.ErrAuditFailed.
			WithDetail("signal_id", signal.ID.String()).
			WithDetail("to", string(to))
	}

	signal.GovernanceState = to
	signal.Decision = decision
	signal.UpdatedAt = time.Now().UTC()
	if decision != nil {
		signal.UpdatedAt = decision.DecidedAt
	}

	s.metrics.GovernanceTransitions.WithLabelValues(string(to)).Inc()
	s.logger.Info("governance transition committed",
		zap.String("signal_id", signal.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor))

	return nil
}

func (s *GovernanceService) lockFor(signalID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks == nil {
		s.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := s.locks[signalID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[signalID] = lock
	}
	return lock
}

func flagRationale(reasons []models.FlagReason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return "flagged for review: " + strings.Join(parts, ", ")
}
