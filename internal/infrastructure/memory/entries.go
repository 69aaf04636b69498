package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// EntryRepository is an append-ordered entry table.
type EntryRepository struct {
	mu      sync.RWMutex
	entries map[int64]*domain.Entry
	order   []int64
}

func NewEntryRepository() *EntryRepository {
	return &EntryRepository{entries: make(map[int64]*domain.Entry)}
}

func (r *EntryRepository) Append(_ context.Context, e *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.ID]; ok {
		return fmt.Errorf("entry %d already exists", e.ID)
	}
	clone := *e
	r.entries[e.ID] = &clone
	r.order = append(r.order, e.ID)
	return nil
}

func (r *EntryRepository) All(_ context.Context) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Entry, 0, len(r.entries))
	for _, id := range r.order {
		if e, ok := r.entries[id]; ok {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *EntryRepository) Get(_ context.Context, id int64) (*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *EntryRepository) Update(_ context.Context, e *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *e
	r.entries[e.ID] = &clone
	return nil
}

func (r *EntryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.entries, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
