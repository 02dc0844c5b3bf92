package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TransactionStore implements storage.TransactionStore using ClickHouse.
// Amounts are stored as strings to keep full decimal precision.
type TransactionStore struct {
	conn *Conn
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(conn *Conn) *TransactionStore {
	return &TransactionStore{conn: conn}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

const transactionColumns = `signature, wallet, timestamp, type, amount, price, protocol, counter_token_mint`

// Insert adds a transaction. MergeTree does not enforce keys, so the
// signature is checked explicitly first.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.Signature == "" || tx.Wallet == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, tx.Signature)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO transactions (`+transactionColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		tx.Signature, tx.Wallet, tx.Timestamp, string(tx.Type),
		tx.Amount.String(), tx.Price, tx.Protocol, tx.CounterTokenMint,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// ListByWallet returns up to limit transactions for wallet, newest first.
func (s *TransactionStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = storage.DefaultTransactionLimit
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions FINAL
		WHERE wallet = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, wallet, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListInRange returns transactions for wallet within [start, end] (inclusive), newest first.
func (s *TransactionStore) ListInRange(ctx context.Context, wallet string, start, end int64) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions FINAL
		WHERE wallet = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
	`

	rows, err := s.conn.Query(ctx, query, wallet, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// LatestTimestamp returns the newest timestamp stored for wallet.
func (s *TransactionStore) LatestTimestamp(ctx context.Context, wallet string) (int64, bool, error) {
	query := `SELECT max(timestamp), count() FROM transactions WHERE wallet = ?`

	var (
		latest int64
		count  uint64
	)
	if err := s.conn.QueryRow(ctx, query, wallet).Scan(&latest, &count); err != nil {
		return 0, false, fmt.Errorf("query latest timestamp: %w", err)
	}
	if count == 0 {
		return 0, false, nil
	}
	return latest, true, nil
}

func (s *TransactionStore) exists(ctx context.Context, signature string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM transactions WHERE signature = ?`, signature).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanTransactions(rows chRows) ([]domain.Transaction, error) {
	var txs []domain.Transaction

	for rows.Next() {
		var (
			tx             domain.Transaction
			txType, amount string
		)

		err := rows.Scan(
			&tx.Signature,
			&tx.Wallet,
			&tx.Timestamp,
			&txType,
			&amount,
			&tx.Price,
			&tx.Protocol,
			&tx.CounterTokenMint,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		tx.Type = domain.TxType(txType)
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount of %s: %w", tx.Signature, err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return txs, nil
}
