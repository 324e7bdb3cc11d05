package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
)

// Sentinel errors returned by repository implementations
var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrStaleState is returned by UpdateGovernance when the stored
	// governance state no longer matches the expected state
	ErrStaleState = errors.New("stored governance state does not match expected state")
)

// SignalFilter narrows signal listings. Zero-valued fields are ignored.
type SignalFilter struct {
	State    models.GovernanceState
	Category models.Category
	Flagged  *bool
	Limit    int
	Offset   int
}

// AuditFilter narrows audit log listings. Zero-valued fields are ignored.
type AuditFilter struct {
	SignalID uuid.UUID
	Actor    string
	ToState  models.GovernanceState
	Start    time.Time
	End      time.Time
	Limit    int
	Offset   int
}

// SignalRepository handles signal persistence
type SignalRepository interface {
	// Insert stores a new signal
	Insert(ctx context.Context, signal *models.Signal) error

	// GetByID retrieves a signal by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Signal, error)

	// List retrieves signals matching the filter, newest first
	List(ctx context.Context, filter SignalFilter) ([]*models.Signal, error)

	// UpdateGovernance transitions a signal from the expected state to
	// the new state. The stored decision metadata is replaced with the
	// given value; nil clears it. Returns ErrStaleState when the stored
	// state differs from expected.
	UpdateGovernance(ctx context.Context, id uuid.UUID, expected, next models.GovernanceState, decision *models.DecisionMetadata) error

	// CountByState returns the number of signals per governance state
	CountByState(ctx context.Context) (map[models.GovernanceState]int, error)

	// MaxSequence returns the highest signal sequence in the store, or 0
	// when the store is empty. Used to seed the factory on startup.
	MaxSequence(ctx context.Context) (int64, error)

	// Remove deletes a signal. Used only to unwind a failed ingest;
	// governed signals are never removed.
	Remove(ctx context.Context, id uuid.UUID) error
}

// AuditRepository handles the append-only audit log
type AuditRepository interface {
	// Append stores a new audit entry and assigns its Sequence.
	// Entries are never updated or deleted.
	Append(ctx context.Context, entry *models.AuditEntry) error

	// GetBySignalID retrieves every entry for a signal in chronological
	// order, ties broken by Sequence
	GetBySignalID(ctx context.Context, signalID uuid.UUID) ([]*models.AuditEntry, error)

	// List retrieves entries matching the filter in chronological order
	List(ctx context.Context, filter AuditFilter) ([]*models.AuditEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Signals SignalRepository
	Audit   AuditRepository
}
