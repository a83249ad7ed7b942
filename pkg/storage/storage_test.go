package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":     "acme_corp",
		"Q3-Goals!":     "q3_goals_",
		"already_safe1": "already_safe1",
		"Café":          "caf_",
		"launch 🚀":      "launch___",
		"":              "",
	}
	for in, want := range cases {
		require.Equal(t, want, Sanitize(in), "input %q", in)
	}
	require.True(t, IsSafeIdentifier("data_12"))
	require.False(t, IsSafeIdentifier("Data"))
	require.False(t, IsSafeIdentifier(""))
}

func TestQuoteIdent(t *testing.T) {
	require.Equal(t, `"impressions"`, QuoteIdent("impressions"))
	require.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	require.Equal(t, `"id", "date"`, QuoteIdents([]string{"id", "date"}))
}

func TestLayoutPaths(t *testing.T) {
	root := t.TempDir()
	layout, err := NewLayout(root)
	require.NoError(t, err)

	name := WorkspaceName("acme", 7)
	require.Equal(t, "ws_acme_7", name)
	require.Equal(t, filepath.Join(root, "ws_acme_7", "workspace.db"), layout.WorkspaceDB(name))
	require.Equal(t, filepath.Join(root, "ws_acme_7", "targetsdb", "q1_42", "target.db"), layout.TargetDB(name, "q1_42"))
	require.Equal(t, "data_9", TargetTable(9))
	require.Equal(t, "march_push_123", TargetSlug("March Push", "123"))
}

func TestRemoveWorkspaceRejectsUnsafeNames(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	require.Error(t, layout.RemoveWorkspace("../etc"))
	require.Error(t, layout.RemoveWorkspace(""))

	dir := layout.WorkspaceDir("ws_a_1")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "targetsdb"), 0o755))
	require.NoError(t, layout.RemoveWorkspace("ws_a_1"))
	_, statErr := os.Stat(dir)
	require.True(t, os.IsNotExist(statErr))
}

func TestOpenMissingFileNeverCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", "target.db")
	opener := NewOpener(Options{})

	for _, mode := range []Mode{ModeReadWrite, ModeReadOnly} {
		_, err := opener.Open(context.Background(), path, mode)
		require.True(t, pkgerrors.Is(err, pkgerrors.CodeStorageMissing), "mode %d: %v", mode, err)
	}
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "store file must not be recreated")
}

func TestCreateThenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws", "targetsdb", "x_1", "target.db")
	opener := NewOpener(Options{})
	ctx := context.Background()

	require.NoError(t, opener.Use(ctx, path, ModeCreate, func(s *Store) error {
		return s.DB().Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)`).Error
	}))

	err := opener.Use(ctx, path, ModeReadOnly, func(s *Store) error {
		return s.DB().Exec(`INSERT INTO t (v) VALUES ('x')`).Error
	})
	require.Error(t, err, "read-only handle must reject writes")

	var count int64
	require.NoError(t, opener.Use(ctx, path, ModeReadWrite, func(s *Store) error {
		if err := s.WithTx(ctx, func(tx *gorm.DB) error {
			return tx.Exec(`INSERT INTO t (v) VALUES ('y')`).Error
		}); err != nil {
			return err
		}
		return s.DB().Raw(`SELECT COUNT(*) FROM t`).Scan(&count).Error
	}))
	require.EqualValues(t, 1, count)
}
