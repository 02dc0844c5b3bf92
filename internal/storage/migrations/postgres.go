package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order.
// Migrations are expected to be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	scripts, err := loadScripts(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, s := range scripts {
		if _, err := pool.Exec(ctx, s.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", s.name, err)
		}
	}
	return nil
}
