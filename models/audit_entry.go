package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one immutable record of a governance state change.
// Sequence is assigned by the repository at append time and is strictly
// increasing across the life of the store.
type AuditEntry struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Sequence  uint64          `json:"sequence" db:"sequence"`
	SignalID  uuid.UUID       `json:"signal_id" db:"signal_id"`
	FromState GovernanceState `json:"from_state" db:"from_state"`
	ToState   GovernanceState `json:"to_state" db:"to_state"`
	Actor     string          `json:"actor" db:"actor"`
	Rationale string          `json:"rationale,omitempty" db:"rationale"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditEntry model
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// NewAuditEntry creates an audit entry for a state transition
func NewAuditEntry(signalID uuid.UUID, from, to GovernanceState, actor string) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		SignalID:  signalID,
		FromState: from,
		ToState:   to,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}

// WithRationale attaches the free-text justification for the transition
func (e *AuditEntry) WithRationale(rationale string) *AuditEntry {
	e.Rationale = rationale
	return e
}
