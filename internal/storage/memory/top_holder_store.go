package memory

import (
	"context"
	"sort"
	"sync"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TopHolderStore is an in-memory implementation of storage.TopHolderStore.
type TopHolderStore struct {
	mu      sync.RWMutex
	holders []domain.TopHolder
}

// NewTopHolderStore creates a new in-memory snapshot store.
func NewTopHolderStore() *TopHolderStore {
	return &TopHolderStore{}
}

// Replace swaps the snapshot under a single lock.
// Validation happens before the swap so a rejected batch keeps the old snapshot.
func (s *TopHolderStore) Replace(_ context.Context, holders []domain.TopHolder) error {
	next := make([]domain.TopHolder, 0, len(holders))
	for _, h := range holders {
		if h.Owner == "" {
			return storage.ErrInvalidInput
		}
		next = append(next, h)
	}

	s.mu.Lock()
	s.holders = next
	s.mu.Unlock()
	return nil
}

// List returns the snapshot ordered by token_balance DESC.
func (s *TopHolderStore) List(_ context.Context) ([]domain.TopHolder, error) {
	s.mu.RLock()
	out := make([]domain.TopHolder, len(s.holders))
	copy(out, s.holders)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TokenBalance > out[j].TokenBalance
	})
	return out, nil
}

var _ storage.TopHolderStore = (*TopHolderStore)(nil)
