package ticket

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]Ticket
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Ticket)}
}

func (r *memoryRepository) Create(_ context.Context, t Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[t.ID]; exists {
		return ErrConflict
	}
	r.store[t.ID] = t
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter ListInput) ([]Ticket, error) {
	r.mu.RLock()
	out := make([]Ticket, 0)
	for _, t := range r.store {
		if matches(t, filter) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].PurchaseDate.After(out[j].PurchaseDate)
	})
	return out, nil
}

func matches(t Ticket, filter ListInput) bool {
	if filter.WalletAddress != "" {
		if t.OwnerWallet != filter.WalletAddress {
			return false
		}
	} else if t.OwnerID != filter.UserID {
		return false
	}
	return filter.EventID == "" || t.EventID == filter.EventID
}
