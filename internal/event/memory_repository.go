package event

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]Event
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Event)}
}

func (r *memoryRepository) Create(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[e.ID]; exists {
		return ErrConflict
	}
	r.store[e.ID] = cloneEvent(e)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.store[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *memoryRepository) List(_ context.Context) ([]Event, error) {
	r.mu.RLock()
	out := make([]Event, 0, len(r.store))
	for _, e := range r.store {
		out = append(out, cloneEvent(e))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *memoryRepository) Reserve(_ context.Context, id string, quantity int) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	if !e.OnSale() {
		return Event{}, ErrNotOnSale
	}
	if quantity > e.Remaining() {
		return Event{}, ErrSoldOut
	}

	before := cloneEvent(e)
	e.TicketsSold += quantity
	r.store[id] = e
	return before, nil
}

func (r *memoryRepository) IncrementTicketsSold(_ context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return ErrNotFound
	}
	e.TicketsSold += delta
	r.store[id] = e
	return nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, status Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.store[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = at
	r.store[id] = e
	return nil
}

func cloneEvent(e Event) Event {
	e.Features = append([]string(nil), e.Features...)
	return e
}
