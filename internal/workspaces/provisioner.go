package workspaces

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"gorm.io/gorm"
)

// System columns of data_table; caller-supplied columns may not reuse them.
var dataTableSystemColumns = map[string]struct{}{
	"id":         {},
	"target_id":  {},
	"added_by":   {},
	"created_at": {},
}

const createMembersTable = `CREATE TABLE IF NOT EXISTS members (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER,
    role TEXT,
    name TEXT,
    email TEXT,
    added_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const createLegacyTargetsTable = `CREATE TABLE IF NOT EXISTS targets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    target_name TEXT UNIQUE,
    target_table TEXT,
    status TEXT DEFAULT 'Active',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// Member is one row of a workspace store's members table.
type Member struct {
	ID     int64  `gorm:"column:id" json:"-"`
	UserID int64  `gorm:"column:user_id" json:"user_id"`
	Role   string `gorm:"column:role" json:"role"`
	Name   string `gorm:"column:name" json:"name"`
	Email  string `gorm:"column:email" json:"email"`
}

// Provisioner creates and reads workspace stores.
type Provisioner struct {
	layout  storage.Layout
	opener  *storage.Opener
	metrics *metrics.StorageMetrics
}

func NewProvisioner(layout storage.Layout, opener *storage.Opener, m *metrics.StorageMetrics) *Provisioner {
	return &Provisioner{layout: layout, opener: opener, metrics: m}
}

func (p *Provisioner) Layout() storage.Layout { return p.layout }

// SanitizeColumns maps labels to column names and rejects duplicates and
// system names.
func SanitizeColumns(labels []string) ([]string, error) {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		name := storage.Sanitize(strings.TrimSpace(label))
		if name == "" {
			return nil, fmt.Errorf("column %q is empty after sanitizing", label)
		}
		if _, reserved := dataTableSystemColumns[name]; reserved {
			return nil, fmt.Errorf("column %q is reserved", name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("column %q is duplicated", name)
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// CreateStore creates <root>/<name>/workspace.db with its three tables and the
// initial members, all in one transaction. columns must already be sanitized.
func (p *Provisioner) CreateStore(ctx context.Context, name string, columns []string, members []models.User) (path string, err error) {
	done := p.metrics.Track(metrics.OpProvisionWorkspace)
	defer func() { done(err) }()

	if !storage.IsSafeIdentifier(name) {
		return "", fmt.Errorf("unsafe workspace name %q", name)
	}
	path = p.layout.WorkspaceDB(name)
	err = p.opener.Use(ctx, path, storage.ModeCreate, func(store *storage.Store) error {
		return store.WithTx(ctx, func(tx *gorm.DB) error {
			defs := make([]string, 0, len(columns)+4)
			defs = append(defs, "id INTEGER PRIMARY KEY AUTOINCREMENT", "target_id INTEGER")
			for _, c := range columns {
				defs = append(defs, storage.QuoteIdent(c)+" TEXT")
			}
			defs = append(defs, "added_by INTEGER", "created_at DATETIME DEFAULT CURRENT_TIMESTAMP")
			stmts := []string{
				"CREATE TABLE IF NOT EXISTS data_table (" + strings.Join(defs, ", ") + ")",
				createLegacyTargetsTable,
				createMembersTable,
			}
			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return insertMembers(tx, members)
		})
	})
	return path, err
}

// ReplaceMembers rewrites the members table of an existing store. The store
// file must exist; it is never recreated here.
func (p *Provisioner) ReplaceMembers(ctx context.Context, name string, members []models.User) error {
	return p.opener.Use(ctx, p.layout.WorkspaceDB(name), storage.ModeReadWrite, func(store *storage.Store) error {
		return store.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Exec(createMembersTable).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM members").Error; err != nil {
				return err
			}
			return insertMembers(tx, members)
		})
	})
}

// Members reads the members table. A store without the table has no members.
func (p *Provisioner) Members(ctx context.Context, name string) ([]Member, error) {
	var rows []Member
	err := p.opener.Use(ctx, p.layout.WorkspaceDB(name), storage.ModeReadOnly, func(store *storage.Store) error {
		conn := store.DB().WithContext(ctx)
		if !conn.Migrator().HasTable("members") {
			return nil
		}
		return conn.Table("members").Order("id").Find(&rows).Error
	})
	if rows == nil {
		rows = []Member{}
	}
	return rows, err
}

func insertMembers(tx *gorm.DB, users []models.User) error {
	for _, u := range users {
		if err := tx.Exec(
			"INSERT INTO members (user_id, role, name, email) VALUES (?, ?, ?, ?)",
			u.ID, string(u.Role), u.Name, u.Email,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
