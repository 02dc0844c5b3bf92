package memory

import (
	"context"
	"sort"
	"sync"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu      sync.RWMutex
	wallets []domain.Wallet // insertion order
	index   map[string]int  // address -> position in wallets
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		index: make(map[string]int),
	}
}

// TopHolders returns up to limit wallets ordered by balance DESC.
func (s *WalletStore) TopHolders(_ context.Context, limit int) ([]domain.Wallet, error) {
	if limit <= 0 {
		limit = storage.DefaultTopLimit
	}
	ranked := s.ranked()
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// AddressByRank returns the address at 1-based position. Returns ErrNotFound if out of range.
func (s *WalletStore) AddressByRank(_ context.Context, position int) (string, error) {
	ranked := s.ranked()
	if position < 1 || position > len(ranked) {
		return "", storage.ErrNotFound
	}
	return ranked[position-1].Address, nil
}

// Upsert inserts new wallets and updates balances of existing ones.
func (s *WalletStore) Upsert(_ context.Context, wallets []domain.Wallet, _ string) error {
	for _, w := range wallets {
		if w.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range wallets {
		if i, exists := s.index[w.Address]; exists {
			s.wallets[i].Balance = w.Balance
			continue
		}
		s.index[w.Address] = len(s.wallets)
		s.wallets = append(s.wallets, w)
	}
	return nil
}

// ranked returns a copy sorted by balance DESC, stable on insertion order.
func (s *WalletStore) ranked() []domain.Wallet {
	s.mu.RLock()
	out := make([]domain.Wallet, len(s.wallets))
	copy(out, s.wallets)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance > out[j].Balance
	})
	return out
}

var _ storage.WalletStore = (*WalletStore)(nil)
