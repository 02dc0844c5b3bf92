// Package report turns stored wallets and transactions into listings and summaries.
package report

import (
	"context"
	"errors"
	"fmt"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// Service reads from the wallet and transaction stores.
type Service struct {
	wallets      storage.WalletStore
	transactions storage.TransactionStore
}

// NewService creates a report service.
func NewService(wallets storage.WalletStore, transactions storage.TransactionStore) *Service {
	return &Service{wallets: wallets, transactions: transactions}
}

// WalletTransactions is the recent activity of the wallet at Position.
type WalletTransactions struct {
	Position     int
	Address      string
	Transactions []domain.Transaction
}

// ListTopWallets returns up to limit wallets by balance, largest first.
func (s *Service) ListTopWallets(ctx context.Context, limit int) ([]domain.Wallet, error) {
	wallets, err := s.wallets.TopHolders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top wallets: %w", err)
	}
	return wallets, nil
}

// ListWalletTransactions returns the latest transactions of the wallet ranked
// at position. A rank with no wallet yields (nil, nil).
func (s *Service) ListWalletTransactions(ctx context.Context, position int) (*WalletTransactions, error) {
	address, err := s.wallets.AddressByRank(ctx, position)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve wallet rank %d: %w", position, err)
	}

	txs, err := s.transactions.ListByWallet(ctx, address, storage.DefaultTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("list transactions of %s: %w", address, err)
	}

	return &WalletTransactions{
		Position:     position,
		Address:      address,
		Transactions: txs,
	}, nil
}

// Summarize aggregates the transactions of the wallet at position within
// [start, end] (unix seconds, inclusive). An unknown rank, an empty range or
// start > end produce a Summary with NoData set.
func (s *Service) Summarize(ctx context.Context, position int, start, end int64) (*Summary, error) {
	summary := &Summary{Position: position, Start: start, End: end}

	address, err := s.wallets.AddressByRank(ctx, position)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			summary.NoData = true
			return summary, nil
		}
		return nil, fmt.Errorf("resolve wallet rank %d: %w", position, err)
	}
	summary.WalletFound = true
	summary.Address = address

	if start > end {
		summary.NoData = true
		return summary, nil
	}

	txs, err := s.transactions.ListInRange(ctx, address, start, end)
	if err != nil {
		return nil, fmt.Errorf("list transactions of %s: %w", address, err)
	}

	summary.aggregate(txs)
	return summary, nil
}
