package postgres

import (
	"context"
	"fmt"
	"time"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
	now  func() time.Time
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// TopHolders returns up to limit wallets ordered by balance DESC, then insertion order.
func (s *WalletStore) TopHolders(ctx context.Context, limit int) ([]domain.Wallet, error) {
	if limit <= 0 {
		limit = storage.DefaultTopLimit
	}

	query := `
		SELECT address, balance
		FROM wallets
		ORDER BY balance DESC, seq ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top holders: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.Address, &w.Balance); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

// AddressByRank returns the address at 1-based position. Returns ErrNotFound if out of range.
func (s *WalletStore) AddressByRank(ctx context.Context, position int) (string, error) {
	if position < 1 {
		return "", storage.ErrNotFound
	}

	query := `
		SELECT address
		FROM wallets
		ORDER BY balance DESC, seq ASC
		LIMIT 1 OFFSET $1
	`

	var address string
	err := s.pool.QueryRow(ctx, query, position-1).Scan(&address)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get wallet by rank: %w", err)
	}
	return address, nil
}

// Upsert inserts wallets or updates balances in one transaction.
func (s *WalletStore) Upsert(ctx context.Context, wallets []domain.Wallet, tokenMint string) error {
	if len(wallets) == 0 {
		return nil
	}
	for _, w := range wallets {
		if w.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO wallets (address, balance, token_mint, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET balance = EXCLUDED.balance,
		    token_mint = EXCLUDED.token_mint,
		    last_updated = EXCLUDED.last_updated
	`
	updated := s.now().Unix()

	for _, w := range wallets {
		if _, err := tx.Exec(ctx, query, w.Address, w.Balance, tokenMint, updated); err != nil {
			return fmt.Errorf("upsert wallet %s: %w", w.Address, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
