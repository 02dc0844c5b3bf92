package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"tokenwise/internal/domain"
	"tokenwise/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// transactionColumns selects amount as text so NUMERIC keeps full precision.
const transactionColumns = `signature, wallet, timestamp, type, amount::text, price, protocol, counter_token_mint`

// Insert adds a new transaction. Returns ErrDuplicateKey if signature exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.Signature == "" || tx.Wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO transactions (
			signature, wallet, timestamp, type, amount, price, protocol, counter_token_mint
		) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		tx.Signature,
		tx.Wallet,
		tx.Timestamp,
		string(tx.Type),
		tx.Amount.String(),
		tx.Price,
		tx.Protocol,
		tx.CounterTokenMint,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListByWallet returns up to limit transactions for wallet, ordered by timestamp DESC.
func (s *TransactionStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = storage.DefaultTransactionLimit
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE wallet = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("get transactions by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListInRange returns transactions for wallet within [start, end] (inclusive), newest first.
func (s *TransactionStore) ListInRange(ctx context.Context, wallet string, start, end int64) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE wallet = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp DESC
	`

	rows, err := s.pool.Query(ctx, query, wallet, start, end)
	if err != nil {
		return nil, fmt.Errorf("get transactions by time range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// LatestTimestamp returns MAX(timestamp) for wallet.
func (s *TransactionStore) LatestTimestamp(ctx context.Context, wallet string) (int64, bool, error) {
	var latest *int64
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(timestamp) FROM transactions WHERE wallet = $1`, wallet,
	).Scan(&latest)
	if err != nil {
		return 0, false, fmt.Errorf("get latest transaction timestamp: %w", err)
	}
	if latest == nil {
		return 0, false, nil
	}
	return *latest, true, nil
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction

	for rows.Next() {
		var (
			tx     domain.Transaction
			txType string
			amount string
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
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		tx.Type = domain.TxType(txType)
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount of %s: %w", tx.Signature, err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
