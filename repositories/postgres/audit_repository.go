package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
)

// AuditRepository implements the repositories.AuditRepository interface.
// The sequence column is a BIGSERIAL, so insertion order is assigned by
// the database and survives restarts.
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a new audit entry and assigns its Sequence
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (
			id, signal_id, from_state, to_state, actor, rationale, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING sequence
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.SignalID,
		entry.FromState,
		entry.ToState,
		entry.Actor,
		entry.Rationale,
		entry.Timestamp,
	).Scan(&entry.Sequence)

	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	r.logger.Debug("audit entry appended",
		zap.String("signal_id", entry.SignalID.String()),
		zap.Uint64("sequence", entry.Sequence),
		zap.String("to_state", string(entry.ToState)))
	return nil
}

// GetBySignalID retrieves every entry for a signal in chronological order
func (r *AuditRepository) GetBySignalID(ctx context.Context, signalID uuid.UUID) ([]*models.AuditEntry, error) {
	return r.List(ctx, repositories.AuditFilter{SignalID: signalID})
}

// List retrieves entries matching the filter in chronological order,
// ties broken by Sequence
func (r *AuditRepository) List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditEntry, error) {
	var where []string
	var args []interface{}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.SignalID != uuid.Nil {
		addArg("signal_id = $%d", filter.SignalID)
	}
	if filter.Actor != "" {
		addArg("actor = $%d", filter.Actor)
	}
	if filter.ToState != "" {
		addArg("to_state = $%d", filter.ToState)
	}
	if !filter.Start.IsZero() {
		addArg("timestamp >= $%d", filter.Start)
	}
	if !filter.End.IsZero() {
		addArg("timestamp <= $%d", filter.End)
	}

	query := `
		SELECT sequence, id, signal_id, from_state, to_state, actor, rationale, timestamp
		FROM audit_entries
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp ASC, sequence ASC"

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
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		err := rows.Scan(
			&entry.Sequence,
			&entry.ID,
			&entry.SignalID,
			&entry.FromState,
			&entry.ToState,
			&entry.Actor,
			&entry.Rationale,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entry rows: %w", err)
	}

	return entries, nil
}
