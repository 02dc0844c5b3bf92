package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// RunClickhouseMigrations applies all embedded ClickHouse files to conn.
// The target database must already exist (it is part of the DSN).
func RunClickhouseMigrations(ctx context.Context, conn driver.Conn) error {
	scripts, err := loadScripts(ClickhouseFS, "clickhouse")
	if err != nil {
		return err
	}

	for _, s := range scripts {
		if err := validateNoSemicolonInStrings(s.sql); err != nil {
			return fmt.Errorf("validate migration %s: %w", s.name, err)
		}

		// ClickHouse driver doesn't support multiquery in Exec
		for _, stmt := range splitStatements(s.sql) {
			if err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", s.name, err)
			}
		}
	}
	return nil
}

// splitStatements splits SQL content into individual statements by semicolon.
//
// It does not understand string literals or block comments, so migrations
// must keep semicolons out of both. validateNoSemicolonInStrings enforces the
// string-literal half of that rule.
func splitStatements(input string) []string {
	var filtered []string
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		filtered = append(filtered, line)
	}
	joined := strings.Join(filtered, "\n")

	var stmts []string
	for _, part := range strings.Split(joined, ";") {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings rejects semicolons inside single-quoted strings.
func validateNoSemicolonInStrings(sql string) error {
	inString := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch == '\'' {
			// Handle escaped quotes ''
			if i+1 < len(sql) && sql[i+1] == '\'' {
				i++ // skip next quote
				continue
			}
			inString = !inString
		} else if ch == ';' && inString {
			return fmt.Errorf("semicolon found inside string literal - this breaks the migration splitter")
		}
	}
	return nil
}
