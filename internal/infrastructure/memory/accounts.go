// Package memory provides process-local implementations of the storage and
// coordination ports. They back STORAGE_BACKEND=memory and the end-to-end
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/logbook/logbook-service/internal/core/domain"
)

// AccountRepository keeps accounts keyed by their case-folded username.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	order    []string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*domain.Account)}
}

func (r *AccountRepository) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.FoldUsername(a.Username)
	if _, ok := r.accounts[key]; ok {
		return domain.ErrDuplicateAccount
	}
	clone := *a
	r.accounts[key] = &clone
	r.order = append(r.order, key)
	return nil
}

func (r *AccountRepository) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.lookup(username)
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

// List returns accounts in registration order.
func (r *AccountRepository) List(_ context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Account, 0, len(r.order))
	for _, key := range r.order {
		clone := *r.accounts[key]
		out = append(out, &clone)
	}
	return out, nil
}

func (r *AccountRepository) Update(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup(a.Username); !ok {
		return domain.ErrNotFound
	}
	clone := *a
	r.accounts[domain.FoldUsername(a.Username)] = &clone
	return nil
}

func (r *AccountRepository) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookup(username); !ok {
		return domain.ErrNotFound
	}
	key := domain.FoldUsername(username)
	delete(r.accounts, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// lookup matches the stored username exactly. Callers hold mu.
func (r *AccountRepository) lookup(username string) (*domain.Account, bool) {
	a, ok := r.accounts[domain.FoldUsername(username)]
	if !ok || a.Username != username {
		return nil, false
	}
	return a, true
}
