package storage

import (
	"context"

	"tokenwise/internal/domain"
)

// DefaultTopLimit is the number of holders listed when no limit is given.
const DefaultTopLimit = 30

// DefaultTransactionLimit caps ListByWallet when limit <= 0.
const DefaultTransactionLimit = 30

// WalletStore provides access to wallets storage.
type WalletStore interface {
	// TopHolders returns up to limit wallets ordered by balance DESC.
	// Ties keep insertion order. limit <= 0 means DefaultTopLimit.
	TopHolders(ctx context.Context, limit int) ([]domain.Wallet, error)

	// AddressByRank returns the address at 1-based position by balance DESC.
	// Returns ErrNotFound if position < 1 or exceeds the wallet count.
	AddressByRank(ctx context.Context, position int) (string, error)

	// Upsert inserts wallets or updates the balance of existing ones.
	Upsert(ctx context.Context, wallets []domain.Wallet, tokenMint string) error
}

// TransactionStore provides access to transactions storage.
type TransactionStore interface {
	// Insert adds a new transaction. Returns ErrDuplicateKey if signature exists.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// ListByWallet returns up to limit transactions, ordered by timestamp DESC.
	// limit <= 0 means DefaultTransactionLimit.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.Transaction, error)

	// ListInRange returns transactions within [start, end] (inclusive), ordered by timestamp DESC.
	ListInRange(ctx context.Context, wallet string, start, end int64) ([]domain.Transaction, error)

	// LatestTimestamp returns the newest stored timestamp for wallet.
	// ok is false when the wallet has no transactions.
	LatestTimestamp(ctx context.Context, wallet string) (ts int64, ok bool, err error)
}

// TopHolderStore provides access to the top_token_holders snapshot.
type TopHolderStore interface {
	// Replace atomically deletes the current snapshot and inserts holders.
	// On failure the previous snapshot is left untouched.
	Replace(ctx context.Context, holders []domain.TopHolder) error

	// List returns the current snapshot ordered by token_balance DESC.
	List(ctx context.Context) ([]domain.TopHolder, error)
}

// Stores bundles the stores a process works with.
type Stores struct {
	Wallets      WalletStore
	Transactions TransactionStore
	TopHolders   TopHolderStore

	// Close releases the underlying connections. May be nil.
	Close func()
}
