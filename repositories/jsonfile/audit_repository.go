package jsonfile

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
)

// AuditRepository is a file-backed implementation of
// repositories.AuditRepository. Entries are append-only; nothing in this
// type mutates or removes a stored entry.
type AuditRepository struct {
	path string

	mu      sync.RWMutex
	entries []*models.AuditEntry
	nextSeq uint64
}

// NewAuditRepository opens the audit store at path, loading any existing
// entries and resuming the sequence counter past the highest stored value
func NewAuditRepository(path string) (*AuditRepository, error) {
	var stored []*models.AuditEntry
	if err := readInto(path, &stored); err != nil {
		return nil, err
	}

	var maxSeq uint64
	for _, e := range stored {
		if e.Sequence > maxSeq {
			maxSeq = e.Sequence
		}
	}

	return &AuditRepository{
		path:    path,
		entries: stored,
		nextSeq: maxSeq,
	}, nil
}

// Append stores a new audit entry and assigns its Sequence
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	cp := *entry
	cp.Sequence = r.nextSeq

	r.entries = append(r.entries, &cp)
	if err := writeAtomic(r.path, r.entries); err != nil {
		r.entries = r.entries[:len(r.entries)-1]
		r.nextSeq--
		return err
	}

	entry.Sequence = cp.Sequence
	return nil
}

// GetBySignalID retrieves every entry for a signal in chronological order
func (r *AuditRepository) GetBySignalID(ctx context.Context, signalID uuid.UUID) ([]*models.AuditEntry, error) {
	return r.List(ctx, repositories.AuditFilter{SignalID: signalID})
}

// List retrieves entries matching the filter in chronological order,
// ties broken by Sequence
func (r *AuditRepository) List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.AuditEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter.SignalID != uuid.Nil && e.SignalID != filter.SignalID {
			continue
		}
		if filter.Actor != "" && e.Actor != filter.Actor {
			continue
		}
		if filter.ToState != "" && e.ToState != filter.ToState {
			continue
		}
		if !filter.Start.IsZero() && e.Timestamp.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && e.Timestamp.After(filter.End) {
			continue
		}
		cp := *e
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Sequence < matched[j].Sequence
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}
