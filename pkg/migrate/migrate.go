package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk root used by the create/validate commands; the
// dialect subdirectory is appended.
const DefaultDir = "pkg/migrate/migrations"

//go:embed migrations
var embedded embed.FS

// DialectDir returns <root>/<dialect>.
func DialectDir(root, dialect string) string {
	return path.Join(root, dialect)
}

// prepare points goose at either the embedded migrations (dir == "") or an
// on-disk directory, and returns the directory goose should read.
func prepare(dialect, dir string) (string, error) {
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if dir == "" {
		goose.SetBaseFS(embedded)
		return DialectDir("migrations", dialect), nil
	}
	goose.SetBaseFS(nil)
	return dir, nil
}

// Run executes a standard goose command that requires a DB connection.
func Run(ctx context.Context, db *sql.DB, dialect, dir, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	source, err := prepare(dialect, dir)
	if err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, source, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion migrates up/down to the requested version by comparing current DB version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	source, err := prepare(dialect, dir)
	if err != nil {
		return err
	}

	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, source, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, source, target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

// EmbeddedFiles lists the bundled migration files for a dialect.
func EmbeddedFiles(dialect string) ([]string, error) {
	entries, err := fs.ReadDir(embedded, DialectDir("migrations", dialect))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
