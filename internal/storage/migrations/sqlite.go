package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSQLiteMigrations applies all embedded SQLite files in lexical order.
// go-sqlite3 executes multi-statement scripts in a single Exec.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	scripts, err := loadScripts(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, s := range scripts {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", s.name, err)
		}
	}
	return nil
}
