package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TransactionStore implements storage.TransactionStore using SQLite.
type TransactionStore struct {
	db *DB
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

var _ storage.TransactionStore = (*TransactionStore)(nil)

// Columns are cast so rows written as REAL by older tools still scan as text.
const transactionColumns = `signature, wallet, CAST(timestamp AS INTEGER), type,
	CAST(amount AS TEXT), CAST(price AS TEXT), protocol, counter_token_mint`

// Insert adds a new transaction. Returns ErrDuplicateKey if signature exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.Signature == "" || tx.Wallet == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			signature, wallet, timestamp, type, amount, price, protocol, counter_token_mint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.Signature,
		tx.Wallet,
		tx.Timestamp,
		string(tx.Type),
		tx.Amount.String(),
		nullString(tx.Price),
		nullString(tx.Protocol),
		nullString(tx.CounterTokenMint),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListByWallet returns up to limit transactions for wallet, newest first.
func (s *TransactionStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = storage.DefaultTransactionLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE wallet = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("get transactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListInRange returns transactions for wallet within [start, end] (inclusive), newest first.
func (s *TransactionStore) ListInRange(ctx context.Context, wallet string, start, end int64) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE wallet = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp DESC
	`, wallet, start, end)
	if err != nil {
		return nil, fmt.Errorf("get transactions by time range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// LatestTimestamp returns MAX(timestamp) for wallet.
func (s *TransactionStore) LatestTimestamp(ctx context.Context, wallet string) (int64, bool, error) {
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT CAST(MAX(timestamp) AS INTEGER) FROM transactions WHERE wallet = ?`, wallet,
	).Scan(&latest)
	if err != nil {
		return 0, false, fmt.Errorf("get latest transaction timestamp: %w", err)
	}
	return latest.Int64, latest.Valid, nil
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction

	for rows.Next() {
		var (
			tx                        domain.Transaction
			txType, amount            string
			price, protocol, counterM sql.NullString
		)

		err := rows.Scan(
			&tx.Signature,
			&tx.Wallet,
			&tx.Timestamp,
			&txType,
			&amount,
			&price,
			&protocol,
			&counterM,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		tx.Type = domain.TxType(txType)
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount of %s: %w", tx.Signature, err)
		}
		tx.Price = stringPtr(price)
		tx.Protocol = stringPtr(protocol)
		tx.CounterTokenMint = stringPtr(counterM)

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
