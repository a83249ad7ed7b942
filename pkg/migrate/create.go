package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Dialects are the registry backends every migration ships for.
var Dialects = []string{"sqlite3", "postgres"}

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s (%[2]s)
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s (%[2]s)
-- +goose StatementEnd
`

// CreateSQLMigration writes one empty migration per dialect under root,
// all sharing a version so the trees stay in step:
//
//	<root>/<dialect>/<YYYYMMDDHHMMSS>_<name>.sql
func CreateSQLMigration(root, name string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return nil, fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	filename := fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), safe)
	paths := make([]string, 0, len(Dialects))
	for _, dialect := range Dialects {
		full := filepath.Join(DialectDir(root, dialect), filename)
		if _, err := os.Stat(full); err == nil {
			return nil, fmt.Errorf("migration already exists: %s", full)
		}
		paths = append(paths, full)
	}

	for i, dialect := range Dialects {
		if err := os.MkdirAll(filepath.Dir(paths[i]), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %q: %w", filepath.Dir(paths[i]), err)
		}
		body := fmt.Sprintf(migrationTemplate, safe, dialect)
		if err := os.WriteFile(paths[i], []byte(body), 0o644); err != nil {
			return nil, fmt.Errorf("write migration %q: %w", paths[i], err)
		}
	}
	return paths, nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}
