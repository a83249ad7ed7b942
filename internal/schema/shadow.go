package schema

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"gorm.io/gorm"
)

const shadowSuffix = "_backup"

// rebuild copies table into a shadow table whose columns are dst, reading the
// values from src (same length, same order), then swaps it in place.
func rebuild(ctx context.Context, tx *gorm.DB, table string, src, dst []Column) error {
	tx = tx.WithContext(ctx)
	shadow := table + shadowSuffix

	var stale int64
	if err := tx.Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, shadow).
		Scan(&stale).Error; err != nil {
		return fmt.Errorf("check shadow table: %w", err)
	}
	if stale > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "a previous schema change left a shadow table behind").
			WithDetails(map[string]any{"table": shadow})
	}

	var createSQL string
	if err := tx.Raw(`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table).
		Scan(&createSQL).Error; err != nil {
		return fmt.Errorf("read table definition: %w", err)
	}
	autoinc := strings.Contains(strings.ToUpper(createSQL), "AUTOINCREMENT")

	steps := []string{
		fmt.Sprintf("CREATE TABLE %s (%s)", storage.QuoteIdent(shadow), columnDefs(dst, autoinc)),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY rowid",
			storage.QuoteIdent(shadow), storage.QuoteIdents(ColumnNames(dst)),
			storage.QuoteIdents(ColumnNames(src)), storage.QuoteIdent(table)),
		fmt.Sprintf("DROP TABLE %s", storage.QuoteIdent(table)),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", storage.QuoteIdent(shadow), storage.QuoteIdent(table)),
	}
	for _, stmt := range steps {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("rebuild %s: %w", table, err)
		}
	}
	return nil
}

// columnDefs renders the DDL column list, keeping type, NOT NULL, default and
// primary key (with AUTOINCREMENT when the source table had it).
func columnDefs(cols []Column, autoinc bool) string {
	pkCount := 0
	for _, c := range cols {
		if c.PK > 0 {
			pkCount++
		}
	}

	defs := make([]string, 0, len(cols)+1)
	var pkNames []string
	for _, c := range cols {
		var b strings.Builder
		b.WriteString(storage.QuoteIdent(c.Name))
		if c.Type != "" {
			b.WriteString(" " + c.Type)
		}
		if c.PK > 0 && pkCount == 1 {
			b.WriteString(" PRIMARY KEY")
			if autoinc && strings.EqualFold(c.Type, "INTEGER") {
				b.WriteString(" AUTOINCREMENT")
			}
		} else if c.PK > 0 {
			pkNames = append(pkNames, c.Name)
		}
		if c.NotNull != 0 {
			b.WriteString(" NOT NULL")
		}
		if c.Default != nil {
			b.WriteString(" DEFAULT " + *c.Default)
		}
		defs = append(defs, b.String())
	}
	if len(pkNames) > 0 {
		defs = append(defs, "PRIMARY KEY ("+storage.QuoteIdents(pkNames)+")")
	}
	return strings.Join(defs, ", ")
}
