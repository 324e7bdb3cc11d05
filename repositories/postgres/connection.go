package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/config"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Signals table
		CREATE TABLE IF NOT EXISTS signals (
			id UUID PRIMARY KEY,
			sequence BIGINT NOT NULL,
			text TEXT NOT NULL,
			source_label VARCHAR(50) NOT NULL,
			redaction_count INTEGER NOT NULL DEFAULT 0,
			sentiment_score DOUBLE PRECISION NOT NULL,
			category VARCHAR(20) NOT NULL,
			confidence INTEGER NOT NULL,
			ambiguity_flagged BOOLEAN NOT NULL DEFAULT false,
			explanation TEXT NOT NULL,
			reputational_risk TEXT NOT NULL,
			operational_risk TEXT NOT NULL,
			customer_trust_impact TEXT NOT NULL,
			suggested_action TEXT NOT NULL,
			urgency VARCHAR(20) NOT NULL,
			flagged_for_review BOOLEAN NOT NULL DEFAULT false,
			flag_reasons JSONB,
			governance_state VARCHAR(20) NOT NULL,
			decision_actor TEXT,
			decision_rationale TEXT,
			decided_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Audit entries table. Sequence is the repository-assigned
		-- insertion order; rows are append-only.
		CREATE TABLE IF NOT EXISTS audit_entries (
			sequence BIGSERIAL PRIMARY KEY,
			id UUID NOT NULL UNIQUE,
			signal_id UUID NOT NULL,
			from_state VARCHAR(20) NOT NULL,
			to_state VARCHAR(20) NOT NULL,
			actor TEXT NOT NULL,
			rationale TEXT,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_signals_governance_state ON signals(governance_state);
		CREATE INDEX IF NOT EXISTS idx_signals_category ON signals(category);
		CREATE INDEX IF NOT EXISTS idx_signals_flagged ON signals(flagged_for_review);
		CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at);

		CREATE INDEX IF NOT EXISTS idx_audit_entries_signal_id ON audit_entries(signal_id);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_actor ON audit_entries(actor);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_to_state ON audit_entries(to_state);
		CREATE INDEX IF NOT EXISTS idx_audit_entries_timestamp ON audit_entries(timestamp);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
