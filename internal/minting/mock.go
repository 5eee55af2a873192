package minting

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Mock mints locally without any network. Collections are numbered 0.0.N and
// serials increase per collection.
type Mock struct {
	mu          sync.Mutex
	nextAccount int64
	serials     map[string]int64
}

// NewMock returns a Mock whose first collection is 0.0.{base}.
func NewMock(base int64) *Mock {
	return &Mock{nextAccount: base, serials: make(map[string]int64)}
}

func (m *Mock) CreateCollection(_ context.Context, name string, maxSupply int) (string, error) {
	if maxSupply <= 0 {
		return "", fmt.Errorf("%w: max supply must be positive for %q", ErrUpstream, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("0.0.%d", m.nextAccount)
	m.nextAccount++
	m.serials[id] = 0
	return id, nil
}

func (m *Mock) Mint(_ context.Context, tokenID string, _ Metadata) (Receipt, error) {
	if tokenID == "" {
		return Receipt{}, fmt.Errorf("%w: token id is required", ErrUpstream)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.serials[tokenID]++
	return Receipt{TokenID: tokenID, SerialNumber: strconv.FormatInt(m.serials[tokenID], 10)}, nil
}
