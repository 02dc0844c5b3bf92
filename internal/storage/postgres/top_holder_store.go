package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TopHolderStore implements storage.TopHolderStore using PostgreSQL.
type TopHolderStore struct {
	pool *Pool
}

// NewTopHolderStore creates a new TopHolderStore.
func NewTopHolderStore(pool *Pool) *TopHolderStore {
	return &TopHolderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TopHolderStore = (*TopHolderStore)(nil)

// Replace deletes the snapshot and bulk-inserts holders in one transaction.
// Any failure rolls back to the previous snapshot.
func (s *TopHolderStore) Replace(ctx context.Context, holders []domain.TopHolder) error {
	for _, h := range holders {
		if h.Owner == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM top_token_holders`); err != nil {
		return fmt.Errorf("clear top holders: %w", err)
	}

	rows := make([][]interface{}, len(holders))
	for i, h := range holders {
		rows[i] = []interface{}{h.Owner, h.TokenBalance}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"top_token_holders"},
		[]string{"owner", "token_balance"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert top holders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List returns the current snapshot ordered by token_balance DESC.
func (s *TopHolderStore) List(ctx context.Context) ([]domain.TopHolder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT owner, token_balance
		FROM top_token_holders
		ORDER BY token_balance DESC
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
