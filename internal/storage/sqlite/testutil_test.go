package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tokenwise/internal/storage/migrations"
)

// setupTestDB opens an in-memory database with migrations applied.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()

	db, err := Open(ctx, ":memory:")
	require.NoError(t, err, "failed to open sqlite")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db.DB), "failed to apply migrations")
	return db
}

func ptr[T any](v T) *T {
	return &v
}
