package account

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]Account
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Account)}
}

func (r *memoryRepository) Get(_ context.Context, accountID string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.store[accountID]
	if !ok {
		return defaultAccount(accountID), nil
	}
	out := acct.clone()
	return &out, nil
}

func (r *memoryRepository) Update(_ context.Context, accountID string, mutate func(*Account) error) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	working := *defaultAccount(accountID)
	if acct, ok := r.store[accountID]; ok {
		working = acct.clone()
	}

	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.AccountID = accountID
	r.store[accountID] = working

	out := working.clone()
	return &out, nil
}
