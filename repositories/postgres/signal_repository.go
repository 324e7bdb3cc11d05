package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
)

// SignalRepository implements the repositories.SignalRepository interface
type SignalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db *DB, logger *zap.Logger) repositories.SignalRepository {
	return &SignalRepository{
		db:     db,
		logger: logger,
	}
}

const signalColumns = `
	id, sequence, text, source_label, redaction_count,
	sentiment_score, category, confidence, ambiguity_flagged,
	explanation, reputational_risk, operational_risk, customer_trust_impact,
	suggested_action, urgency, flagged_for_review, flag_reasons,
	governance_state, decision_actor, decision_rationale, decided_at,
	created_at, updated_at
`

// Insert stores a new signal
func (r *SignalRepository) Insert(ctx context.Context, signal *models.Signal) error {
	query := `
		INSERT INTO signals (` + signalColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
	`

	flagReasons, err := json.Marshal(signal.FlagReasons)
	if err != nil {
		return fmt.Errorf("failed to encode flag reasons: %w", err)
	}

	var actor, rationale sql.NullString
	var decidedAt sql.NullTime
	if signal.Decision != nil {
		actor = sql.NullString{String: signal.Decision.Actor, Valid: true}
		rationale = sql.NullString{String: signal.Decision.Rationale, Valid: true}
		decidedAt = sql.NullTime{Time: signal.Decision.DecidedAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		signal.ID,
		signal.Sequence,
		signal.Text,
		signal.SourceLabel,
		signal.RedactionCount,
		signal.SentimentScore,
		signal.Category,
		signal.Confidence,
		signal.AmbiguityFlagged,
		signal.Explanation,
		signal.ImpactAssessment.ReputationalRisk,
		signal.ImpactAssessment.OperationalRisk,
		signal.ImpactAssessment.CustomerTrustImpact,
		signal.SuggestedAction,
		signal.Urgency,
		signal.FlaggedForReview,
		flagReasons,
		signal.GovernanceState,
		actor,
		rationale,
		decidedAt,
		signal.CreatedAt,
		signal.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert signal: %w", err)
	}

	r.logger.Debug("signal inserted",
		zap.String("id", signal.ID.String()),
		zap.String("governance_state", string(signal.GovernanceState)))
	return nil
}

// GetByID retrieves a signal by ID
func (r *SignalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`

	signal, err := scanSignal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}
	return signal, nil
}

// List retrieves signals matching the filter, newest first
func (r *SignalRepository) List(ctx context.Context, filter repositories.SignalFilter) ([]*models.Signal, error) {
	var where []string
	var args []interface{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.State != "" {
		addArg("governance_state = $%d", filter.State)
	}
	if filter.Category != "" {
		addArg("category = $%d", filter.Category)
	}
	if filter.Flagged != nil {
		addArg("flagged_for_review = $%d", *filter.Flagged)
	}

	query := `SELECT ` + signalColumns + ` FROM signals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, sequence DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		signal, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, signal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows: %w", err)
	}

	return signals, nil
}

// UpdateGovernance transitions a signal between governance states using a
// compare-and-set on the stored state
func (r *SignalRepository) UpdateGovernance(ctx context.Context, id uuid.UUID, expected, next models.GovernanceState, decision *models.DecisionMetadata) error {
	query := `
		UPDATE signals
		SET governance_state = $1,
		    decision_actor = $2,
		    decision_rationale = $3,
		    decided_at = $4,
		    updated_at = $5
		WHERE id = $6 AND governance_state = $7
	`

	var actor, rationale sql.NullString
	var decidedAt sql.NullTime
	if decision != nil {
		actor = sql.NullString{String: decision.Actor, Valid: true}
		rationale = sql.NullString{String: decision.Rationale, Valid: true}
		decidedAt = sql.NullTime{Time: decision.DecidedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		next, actor, rationale, decidedAt, time.Now().UTC(), id, expected)
	if err != nil {
		return fmt.Errorf("failed to update governance state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Either the signal is missing or its state moved on
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return repositories.ErrStaleState
	}

	return nil
}

// CountByState returns the number of signals per governance state
func (r *SignalRepository) CountByState(ctx context.Context) (map[models.GovernanceState]int, error) {
	query := `SELECT governance_state, COUNT(*) FROM signals GROUP BY governance_state`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count signals: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.GovernanceState]int)
	for rows.Next() {
		var state models.GovernanceState
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan signal count: %w", err)
		}
		counts[state] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal counts: %w", err)
	}

	return counts, nil
}

// MaxSequence returns the highest signal sequence in the store, or 0
// when the store is empty
func (r *SignalRepository) MaxSequence(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sequence), 0) FROM signals`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max sequence: %w", err)
	}
	return max, nil
}

// Remove deletes a signal. Only used to unwind a failed ingest.
func (r *SignalRepository) Remove(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM signals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove signal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// rowScanner covers both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(row rowScanner) (*models.Signal, error) {
	signal := &models.Signal{}
	var flagReasons []byte
	var actor, rationale sql.NullString
	var decidedAt sql.NullTime

	err := row.Scan(
		&signal.ID,
		&signal.Sequence,
		&signal.Text,
		&signal.SourceLabel,
		&signal.RedactionCount,
		&signal.SentimentScore,
		&signal.Category,
		&signal.Confidence,
		&signal.AmbiguityFlagged,
		&signal.Explanation,
		&signal.ImpactAssessment.ReputationalRisk,
		&signal.ImpactAssessment.OperationalRisk,
		&signal.ImpactAssessment.CustomerTrustImpact,
		&signal.SuggestedAction,
		&signal.Urgency,
		&signal.FlaggedForReview,
		&flagReasons,
		&signal.GovernanceState,
		&actor,
		&rationale,
		&decidedAt,
		&signal.CreatedAt,
		&signal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(flagReasons) > 0 {
		if err := json.Unmarshal(flagReasons, &signal.FlagReasons); err != nil {
			return nil, fmt.Errorf("failed to decode flag reasons: %w", err)
		}
	}
	if actor.Valid {
		signal.Decision = &models.DecisionMetadata{
			Actor:     actor.String,
			Rationale: rationale.String,
			DecidedAt: decidedAt.Time,
		}
	}

	return signal, nil
}
