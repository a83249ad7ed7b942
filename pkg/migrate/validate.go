package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks one dialect directory: file names, unique versions,
// and balanced goose annotations.
func ValidateDir(dir string) error {
	_, err := validateDir(dir)
	return err
}

// ValidateTree validates every dialect directory under root and requires
// them to carry the same migration files.
func ValidateTree(root string) error {
	var reference []string
	for i, dialect := range Dialects {
		files, err := validateDir(DialectDir(root, dialect))
		if err != nil {
			return fmt.Errorf("%s: %w", dialect, err)
		}
		if i == 0 {
			reference = files
			continue
		}
		if strings.Join(files, ",") != strings.Join(reference, ",") {
			return fmt.Errorf("%s migrations %v differ from %s migrations %v", dialect, files, Dialects[0], reference)
		}
	}
	return nil
}

func validateDir(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkAnnotations(string(b)); err != nil {
			return nil, fmt.Errorf("migration %q: %w", name, err)
		}
		files = append(files, name)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations found in %q", dir)
	}
	sort.Strings(files)
	return files, nil
}

func checkAnnotations(txt string) error {
	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(txt, marker) {
			return fmt.Errorf("missing %q", marker)
		}
	}
	begins := strings.Count(txt, "-- +goose StatementBegin")
	ends := strings.Count(txt, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("%d StatementBegin vs %d StatementEnd", begins, ends)
	}
	return nil
}
