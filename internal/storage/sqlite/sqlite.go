// Package sqlite implements the storage interfaces on a local SQLite file,
// the default store for the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"tokenwise/internal/storage"
)

// DB wraps sql.DB for dependency injection.
type DB struct {
	*sql.DB
}

// Open opens the SQLite database at path with a single connection.
// All queries of a process are serialized through that connection.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return &DB{DB: db}, nil
}

// NewStores builds all SQLite-backed stores on db.
func NewStores(db *DB) *storage.Stores {
	return &storage.Stores{
		Wallets:      NewWalletStore(db),
		Transactions: NewTransactionStore(db),
		TopHolders:   NewTopHolderStore(db),
		Close:        func() { db.Close() },
	}
}

// isDuplicateKeyError checks if error is a PRIMARY KEY or UNIQUE violation.
func isDuplicateKeyError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
