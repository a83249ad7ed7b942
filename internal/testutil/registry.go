// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/migrate"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewRegistry opens a migrated SQLite registry in a temp dir.
func NewRegistry(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	conn, err := gorm.Open(sqlite.Open("file:"+path+"?_busy_timeout=5000"), db.GormConfig())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Run(context.Background(), sqlDB, "sqlite3", "", "up"))
	return conn
}

// SeedUser inserts a user with a placeholder hash.
func SeedUser(t testing.TB, conn *gorm.DB, name, email string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: "x",
		Role:     role,
		Status:   enums.UserStatusActive,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}
