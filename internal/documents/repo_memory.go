package documents

import (
	"context"
	"maps"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]DocumentRecord
	sets    map[string]SupportingDocumentSet
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]DocumentRecord),
		sets:    make(map[string]SupportingDocumentSet),
	}
}

func (r *MemoryRepo) CreateRecord(ctx context.Context, rec DocumentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *MemoryRepo) GetRecord(ctx context.Context, id string) (DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return DocumentRecord{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return DocumentRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) CreateSupportingSet(ctx context.Context, set SupportingDocumentSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set.Files = maps.Clone(set.Files)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[set.ID] = set
	return nil
}

func (r *MemoryRepo) GetSupportingSet(ctx context.Context, id string) (SupportingDocumentSet, error) {
	if err := ctx.Err(); err != nil {
		return SupportingDocumentSet{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.sets[id]
	if !ok {
		return SupportingDocumentSet{}, ErrNotFound
	}
	set.Files = maps.Clone(set.Files)
	return set, nil
}

// Len reports how many document records are stored.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

var _ Repo = (*MemoryRepo)(nil)
