package memory

import (
	"context"
	"sort"
	"sync"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu    sync.RWMutex
	txs   []domain.Transaction // insertion order
	bySig map[string]struct{}
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		bySig: make(map[string]struct{}),
	}
}

// Insert adds a new transaction. Returns ErrDuplicateKey if signature exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.Signature == "" || tx.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySig[tx.Signature]; exists {
		return storage.ErrDuplicateKey
	}
	s.bySig[tx.Signature] = struct{}{}
	s.txs = append(s.txs, *tx)
	return nil
}

// ListByWallet returns up to limit transactions for wallet, newest first.
func (s *TransactionStore) ListByWallet(_ context.Context, wallet string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = storage.DefaultTransactionLimit
	}
	out := s.filter(func(tx *domain.Transaction) bool {
		return tx.Wallet == wallet
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListInRange returns transactions for wallet within [start, end], newest first.
func (s *TransactionStore) ListInRange(_ context.Context, wallet string, start, end int64) ([]domain.Transaction, error) {
	if start > end {
		return nil, nil
	}
	return s.filter(func(tx *domain.Transaction) bool {
		return tx.Wallet == wallet && tx.Timestamp >= start && tx.Timestamp <= end
	}), nil
}

// LatestTimestamp returns the newest timestamp stored for wallet.
func (s *TransactionStore) LatestTimestamp(_ context.Context, wallet string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest int64
		found  bool
	)
	for i := range s.txs {
		if s.txs[i].Wallet != wallet {
			continue
		}
		if !found || s.txs[i].Timestamp > latest {
			latest = s.txs[i].Timestamp
			found = true
		}
	}
	return latest, found, nil
}

// filter returns matching transactions sorted by timestamp DESC.
func (s *TransactionStore) filter(match func(*domain.Transaction) bool) []domain.Transaction {
	s.mu.RLock()
	var out []domain.Transaction
	for i := range s.txs {
		if match(&s.txs[i]) {
			out = append(out, s.txs[i])
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
