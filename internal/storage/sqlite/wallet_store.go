package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// WalletStore implements storage.WalletStore using SQLite.
type WalletStore struct {
	db  *DB
	now func() time.Time
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(db *DB) *WalletStore {
	return &WalletStore{db: db, now: time.Now}
}

var _ storage.WalletStore = (*WalletStore)(nil)

// TopHolders returns up to limit wallets ordered by balance DESC, then rowid.
// Balances written as REAL by older tools are truncated to whole tokens.
func (s *WalletStore) TopHolders(ctx context.Context, limit int) ([]domain.Wallet, error) {
	if limit <= 0 {
		limit = storage.DefaultTopLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT address, CAST(balance AS INTEGER)
		FROM wallets
		ORDER BY balance DESC, rowid ASC
		LIMIT ?
	`, limit)
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

	var address string
	err := s.db.QueryRowContext(ctx, `
		SELECT address
		FROM wallets
		ORDER BY balance DESC, rowid ASC
		LIMIT 1 OFFSET ?
	`, position-1).Scan(&address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get wallet by rank: %w", err)
	}
	return address, nil
}

// Upsert inserts wallets or updates balances in one transaction.
// ON CONFLICT keeps the rowid, so rank ties keep first-seen order.
func (s *WalletStore) Upsert(ctx context.Context, wallets []domain.Wallet, tokenMint string) error {
	if len(wallets) == 0 {
		return nil
	}
	for _, w := range wallets {
		if w.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallets (address, balance, token_mint, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO UPDATE
		SET balance = excluded.balance,
		    token_mint = excluded.token_mint,
		    last_updated = excluded.last_updated
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	updated := s.now().Unix()
	for _, w := range wallets {
		if _, err := stmt.ExecContext(ctx, w.Address, w.Balance, tokenMint, updated); err != nil {
			return fmt.Errorf("upsert wallet %s: %w", w.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
