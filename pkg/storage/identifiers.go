package storage

import (
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"
)

// Sanitize maps every character outside [A-Za-z0-9_] to "_" and lowercases
// the result. Characters outside the BMP count as two, matching the names
// already on disk.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == utf8.RuneError:
			b.WriteByte('_')
		case r > 0xFFFF:
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// IsSafeIdentifier reports whether name is already in sanitized form.
func IsSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	return Sanitize(name) == name
}

// QuoteIdent double-quotes an identifier for interpolation into DDL/DML.
func QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

// QuoteIdents quotes and comma-joins names.
func QuoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
