package sqlite

import (
	"context"
	"fmt"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TopHolderStore implements storage.TopHolderStore using SQLite.
type TopHolderStore struct {
	db *DB
}

// NewTopHolderStore creates a new TopHolderStore.
func NewTopHolderStore(db *DB) *TopHolderStore {
	return &TopHolderStore{db: db}
}

var _ storage.TopHolderStore = (*TopHolderStore)(nil)

// Replace deletes the snapshot and inserts holders in one transaction.
func (s *TopHolderStore) Replace(ctx context.Context, holders []domain.TopHolder) error {
	for _, h := range holders {
		if h.Owner == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM top_token_holders`); err != nil {
		return fmt.Errorf("clear top holders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO top_token_holders (owner, token_balance) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, h := range holders {
		if _, err := stmt.ExecContext(ctx, h.Owner, h.TokenBalance); err != nil {
			return fmt.Errorf("insert top holder %s: %w", h.Owner, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List returns the current snapshot ordered by token_balance DESC.
func (s *TopHolderStore) List(ctx context.Context) ([]domain.TopHolder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, CAST(token_balance AS INTEGER)
		FROM top_token_holders
		ORDER BY token_balance DESC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get top holders: %w", err)
	}
	defer rows.Close()

	var holders []domain.TopHolder
	for rows.Next() {
		var h domain.TopHolder
		if err := rows.Scan(&h.Owner, &h.TokenBalance); err != nil {
			return nil, fmt.Errorf("scan top holder row: %w", err)
		}
		holders = append(holders, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top holder rows: %w", err)
	}
	return holders, nil
}
