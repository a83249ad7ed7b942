package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"gorm.io/gorm"
)

// Strategy picks how rename/drop are carried out.
type Strategy int

const (
	// StrategyAuto tries native ALTER TABLE first and rebuilds on failure.
	StrategyAuto Strategy = iota
	// StrategyShadow always rebuilds through a shadow table.
	StrategyShadow
)

// Mutator changes the columns of a data table. Every method expects tx to be
// an open transaction on the owning store; callers commit or roll back.
type Mutator struct {
	strategy Strategy
}

func NewMutator(strategy Strategy) *Mutator {
	return &Mutator{strategy: strategy}
}

// AddColumn appends a column and returns its sanitized name.
func (m *Mutator) AddColumn(ctx context.Context, tx *gorm.DB, table, name, colType string) (string, error) {
	safe := storage.Sanitize(strings.TrimSpace(name))
	if safe == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "column name is required")
	}
	cols, err := Columns(ctx, tx, table)
	if err != nil {
		return "", err
	}
	if HasColumn(cols, safe) {
		return "", duplicateColumn(safe)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		storage.QuoteIdent(table), storage.QuoteIdent(safe), NormalizeType(colType))
	if err := tx.WithContext(ctx).Exec(stmt).Error; err != nil {
		if db.IsDuplicateColumn(err) {
			return "", duplicateColumn(safe)
		}
		return "", fmt.Errorf("add column %s: %w", safe, err)
	}
	return safe, nil
}

// RenameColumn renames oldName to the sanitized newName and returns the
// latter. Row count, row order and all other values are preserved.
func (m *Mutator) RenameColumn(ctx context.Context, tx *gorm.DB, table, oldName, newName string) (string, error) {
	if IsProtected(oldName) {
		return "", protectedColumn(oldName)
	}
	safe := storage.Sanitize(strings.TrimSpace(newName))
	if safe == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "new column name is required")
	}

	cols, err := Columns(ctx, tx, table)
	if err != nil {
		return "", err
	}
	idx := indexOf(cols, oldName)
	if idx < 0 {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "column not found").
			WithDetails(map[string]any{"column": oldName})
	}
	if safe == oldName {
		return safe, nil
	}
	if HasColumn(cols, safe) {
		return "", duplicateColumn(safe)
	}

	if m.strategy == StrategyAuto {
		stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			storage.QuoteIdent(table), storage.QuoteIdent(oldName), storage.QuoteIdent(safe))
		if err := tx.WithContext(ctx).Exec(stmt).Error; err == nil {
			return safe, nil
		}
	}

	next := make([]Column, len(cols))
	copy(next, cols)
	next[idx].Name = safe
	if err := rebuild(ctx, tx, table, cols, next); err != nil {
		return "", err
	}
	return safe, nil
}

// DeleteColumn drops name. Data in that column is gone for good.
func (m *Mutator) DeleteColumn(ctx context.Context, tx *gorm.DB, table, name string) error {
	if IsProtected(name) {
		return protectedColumn(name)
	}
	cols, err := Columns(ctx, tx, table)
	if err != nil {
		return err
	}
	idx := indexOf(cols, name)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "column not found").
			WithDetails(map[string]any{"column": name})
	}

	if m.strategy == StrategyAuto {
		stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", storage.QuoteIdent(table), storage.QuoteIdent(name))
		if err := tx.WithContext(ctx).Exec(stmt).Error; err == nil {
			return nil
		}
	}

	src := make([]Column, 0, len(cols)-1)
	for i, c := range cols {
		if i != idx {
			src = append(src, c)
		}
	}
	return rebuild(ctx, tx, table, src, src)
}

func duplicateColumn(name string) error {
	return pkgerrors.New(pkgerrors.CodeDuplicateColumn, "column already exists").
		WithDetails(map[string]any{"column": name})
}

func protectedColumn(name string) error {
	return pkgerrors.New(pkgerrors.CodeProtectedColumn, fmt.Sprintf("column %q is protected", name)).
		WithDetails(map[string]any{"column": name})
}
