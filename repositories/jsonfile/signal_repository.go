package jsonfile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
)

// SignalRepository is a file-backed implementation of
// repositories.SignalRepository
type SignalRepository struct {
	path string

	mu      sync.RWMutex
	signals map[uuid.UUID]*models.Signal
}

// NewSignalRepository opens the signal store at path, loading any
// existing signals
func NewSignalRepository(path string) (*SignalRepository, error) {
	var stored []*models.Signal
	if err := readInto(path, &stored); err != nil {
		return nil, err
	}

	signals := make(map[uuid.UUID]*models.Signal, len(stored))
	for _, sig := range stored {
		signals[sig.ID] = sig
	}

	return &SignalRepository{
		path:    path,
		signals: signals,
	}, nil
}

// Insert stores a new signal
func (r *SignalRepository) Insert(ctx context.Context, signal *models.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *signal
	r.signals[signal.ID] = &cp
	if err := r.persistLocked(); err != nil {
		delete(r.signals, signal.ID)
		return err
	}
	return nil
}

// GetByID retrieves a signal by ID
func (r *SignalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sig, ok := r.signals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *sig
	return &cp, nil
}

// List retrieves signals matching the filter, newest first
func (r *SignalRepository) List(ctx context.Context, filter repositories.SignalFilter) ([]*models.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Signal, 0, len(r.signals))
	for _, sig := range r.signals {
		if filter.State != "" && sig.GovernanceState != filter.State {
			continue
		}
		if filter.Category != "" && sig.Category != filter.Category {
			continue
		}
		if filter.Flagged != nil && sig.FlaggedForReview != *filter.Flagged {
			continue
		}
		cp := *sig
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].Sequence > matched[j].Sequence
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

// UpdateGovernance transitions a signal between governance states
func (r *SignalRepository) UpdateGovernance(ctx context.Context, id uuid.UUID, expected, next models.GovernanceState, decision *models.DecisionMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig, ok := r.signals[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if sig.GovernanceState != expected {
		return repositories.ErrStaleState
	}

	updated := *sig
	updated.GovernanceState = next
	updated.Decision = nil
	if decision != nil {
		cp := *decision
		updated.Decision = &cp
	}
	updated.UpdatedAt = time.Now().UTC()

	r.signals[id] = &updated
	if err := r.persistLocked(); err != nil {
		r.signals[id] = sig
		return err
	}
	return nil
}

// CountByState returns the number of signals per governance state
func (r *SignalRepository) CountByState(ctx context.Context) (map[models.GovernanceState]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.GovernanceState]int)
	for _, sig := range r.signals {
		counts[sig.GovernanceState]++
	}
	return counts, nil
}

// MaxSequence returns the highest signal sequence in the store, or 0
// when the store is empty
func (r *SignalRepository) MaxSequence(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max int64
	for _, sig := range r.signals {
		if sig.Sequence > max {
			max = sig.Sequence
		}
	}
	return max, nil
}

// Remove deletes a signal. Only used to unwind a failed ingest.
func (r *SignalRepository) Remove(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig, ok := r.signals[id]
	if !ok {
		return repositories.ErrNotFound
	}
	delete(r.signals, id)
	if err := r.persistLocked(); err != nil {
		r.signals[id] = sig
		return err
	}
	return nil
}

// persistLocked rewrites the store file. Callers must hold the write lock.
func (r *SignalRepository) persistLocked() error {
	stored := make([]*models.Signal, 0, len(r.signals))
	for _, sig := range r.signals {
		stored = append(stored, sig)
	}
	sort.Slice(stored, func(i, j int) bool {
		return stored[i].Sequence < stored[j].Sequence
	})
	return writeAtomic(r.path, stored)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
