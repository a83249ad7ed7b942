package schema

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"gorm.io/gorm"
)

// Column is one row of PRAGMA table_info.
type Column struct {
	CID     int     `gorm:"column:cid" json:"-"`
	Name    string  `gorm:"column:name" json:"name"`
	Type    string  `gorm:"column:type" json:"type"`
	NotNull int     `gorm:"column:notnull" json:"-"`
	Default *string `gorm:"column:dflt_value" json:"-"`
	PK      int     `gorm:"column:pk" json:"-"`
}

var protectedColumns = map[string]struct{}{
	"id":         {},
	"date":       {},
	"created_at": {},
}

var allowedTypes = map[string]struct{}{
	"TEXT":    {},
	"REAL":    {},
	"INTEGER": {},
	"DATE":    {},
}

// IsProtected reports whether name is a structural column that must never be
// renamed or dropped.
func IsProtected(name string) bool {
	_, ok := protectedColumns[name]
	return ok
}

// NormalizeType maps anything outside the whitelist to TEXT.
func NormalizeType(t string) string {
	upper := strings.ToUpper(strings.TrimSpace(t))
	if _, ok := allowedTypes[upper]; ok {
		return upper
	}
	return "TEXT"
}

// Columns returns the ordered column list of table.
func Columns(ctx context.Context, tx *gorm.DB, table string) ([]Column, error) {
	var cols []Column
	q := fmt.Sprintf("PRAGMA table_info(%s)", storage.QuoteIdent(table))
	if err := tx.WithContext(ctx).Raw(q).Scan(&cols).Error; err != nil {
		return nil, fmt.Errorf("read schema of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "data table not found")
	}
	return cols, nil
}

// ColumnNames is a convenience over Columns.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func indexOf(cols []Column, name string) int {
	for i, c := range cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether name is present in cols.
func HasColumn(cols []Column, name string) bool {
	return indexOf(cols, name) >= 0
}
