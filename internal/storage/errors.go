package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist,
	// including a wallet rank outside [1, wallet count].
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a transaction whose
	// signature already exists. Transactions are never updated.
	ErrDuplicateKey = errors.New("duplicate key: transactions are immutable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
