package migrations

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// script is one migration file read from an embedded FS.
type script struct {
	name string
	sql  string
}

// loadScripts returns the non-empty .sql files under dir in lexical order.
func loadScripts(fsys fs.FS, dir string) ([]script, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	scripts := make([]script, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		scripts = append(scripts, script{name: file, sql: string(data)})
	}
	return scripts, nil
}
