package schema

import (
	"context"
	"path/filepath"
	"testing"

	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testTable = "data_1"

type sheetRow struct {
	ID          int64
	Date        string
	Impressions float64
	Notes       *string
}

func newSheet(t *testing.T) *storage.Store {
	t.Helper()
	opener := storage.NewOpener(storage.Options{})
	store, err := opener.Open(context.Background(), filepath.Join(t.TempDir(), "target.db"), storage.ModeCreate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.DB().Exec(`CREATE TABLE data_1 (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT,
		impressions REAL DEFAULT 0,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`).Error)
	for _, d := range []string{"2025-01-03", "2025-01-01", "2025-01-02"} {
		require.NoError(t, store.DB().Exec(`INSERT INTO data_1 (date, impressions, notes) VALUES (?, ?, ?)`, d, 10, "n-"+d).Error)
	}
	return store
}

func readRows(t *testing.T, tx *gorm.DB, notesCol string) []sheetRow {
	t.Helper()
	var rows []sheetRow
	q := "SELECT id, date, impressions, " + storage.QuoteIdent(notesCol) + " AS notes FROM data_1 ORDER BY rowid"
	require.NoError(t, tx.Raw(q).Scan(&rows).Error)
	return rows
}

func inTx(t *testing.T, store *storage.Store, fn func(tx *gorm.DB) error) error {
	t.Helper()
	return store.WithTx(context.Background(), fn)
}

func TestRenamePreservesRowsBothStrategies(t *testing.T) {
	for _, strategy := range []Strategy{StrategyAuto, StrategyShadow} {
		store := newSheet(t)
		before := readRows(t, store.DB(), "notes")
		m := NewMutator(strategy)

		var got string
		require.NoError(t, inTx(t, store, func(tx *gorm.DB) error {
			var err error
			got, err = m.RenameColumn(context.Background(), tx, testTable, "notes", "Team Notes")
			return err
		}))
		require.Equal(t, "team_notes", got)

		after := readRows(t, store.DB(), "team_notes")
		require.Equal(t, before, after, "strategy %d", strategy)

		cols, err := Columns(context.Background(), store.DB(), testTable)
		require.NoError(t, err)
		require.Equal(t, []string{"id", "date", "impressions", "team_notes", "created_at"}, ColumnNames(cols))

		// the rebuilt table must still hand out ids
		require.NoError(t, store.DB().Exec(`INSERT INTO data_1 (date) VALUES ('2025-01-04')`).Error)
		var maxID int64
		require.NoError(t, store.DB().Raw(`SELECT MAX(id) FROM data_1`).Scan(&maxID).Error)
		require.EqualValues(t, 4, maxID)
	}
}

func TestDeleteColumnBothStrategies(t *testing.T) {
	for _, strategy := range []Strategy{StrategyAuto, StrategyShadow} {
		store := newSheet(t)
		m := NewMutator(strategy)

		require.NoError(t, inTx(t, store, func(tx *gorm.DB) error {
			return m.DeleteColumn(context.Background(), tx, testTable, "notes")
		}))
		cols, err := Columns(context.Background(), store.DB(), testTable)
		require.NoError(t, err)
		require.False(t, HasColumn(cols, "notes"))

		var count int64
		require.NoError(t, store.DB().Raw(`SELECT COUNT(*) FROM data_1`).Scan(&count).Error)
		require.EqualValues(t, 3, count)

		// re-adding the same name does not bring values back
		require.NoError(t, inTx(t, store, func(tx *gorm.DB) error {
			_, err := m.AddColumn(context.Background(), tx, testTable, "notes", "TEXT")
			return err
		}))
		for _, r := range readRows(t, store.DB(), "notes") {
			require.Nil(t, r.Notes)
		}
	}
}

func TestProtectedColumns(t *testing.T) {
	store := newSheet(t)
	m := NewMutator(StrategyAuto)
	for _, col := range []string{"id", "date", "created_at"} {
		err := inTx(t, store, func(tx *gorm.DB) error {
			_, err := m.RenameColumn(context.Background(), tx, testTable, col, "other")
			return err
		})
		require.True(t, pkgerrors.Is(err, pkgerrors.CodeProtectedColumn), "rename %s: %v", col, err)

		err = inTx(t, store, func(tx *gorm.DB) error {
			return m.DeleteColumn(context.Background(), tx, testTable, col)
		})
		require.True(t, pkgerrors.Is(err, pkgerrors.CodeProtectedColumn), "delete %s: %v", col, err)
	}
}

func TestDuplicateAndMissing(t *testing.T) {
	store := newSheet(t)
	m := NewMutator(StrategyAuto)
	ctx := context.Background()

	err := inTx(t, store, func(tx *gorm.DB) error {
		_, err := m.AddColumn(ctx, tx, testTable, "Impressions", "REAL")
		return err
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicateColumn), "%v", err)

	err = inTx(t, store, func(tx *gorm.DB) error {
		_, err := m.RenameColumn(ctx, tx, testTable, "notes", "impressions")
		return err
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicateColumn), "%v", err)

	err = inTx(t, store, func(tx *gorm.DB) error {
		return m.DeleteColumn(ctx, tx, testTable, "nope")
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "%v", err)

	_, err = Columns(ctx, store.DB(), "data_404")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "%v", err)
}

func TestAddColumnNormalizesType(t *testing.T) {
	store := newSheet(t)
	m := NewMutator(StrategyAuto)

	require.NoError(t, inTx(t, store, func(tx *gorm.DB) error {
		_, err := m.AddColumn(context.Background(), tx, testTable, "Leads; DROP TABLE x", "BLOB")
		return err
	}))
	cols, err := Columns(context.Background(), store.DB(), testTable)
	require.NoError(t, err)
	last := cols[len(cols)-1]
	require.Equal(t, "leads__drop_table_x", last.Name)
	require.Equal(t, "TEXT", last.Type)
}

func TestShadowRollbackOnFailure(t *testing.T) {
	store := newSheet(t)
	m := NewMutator(StrategyShadow)

	require.NoError(t, store.DB().Exec(`CREATE TABLE data_1_backup (x TEXT)`).Error)
	err := inTx(t, store, func(tx *gorm.DB) error {
		_, err := m.RenameColumn(context.Background(), tx, testTable, "notes", "memo")
		return err
	})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict), "%v", err)

	cols, err := Columns(context.Background(), store.DB(), testTable)
	require.NoError(t, err)
	require.True(t, HasColumn(cols, "notes"), "original table must be untouched")
}

func TestRenameInsideRolledBackTx(t *testing.T) {
	store := newSheet(t)
	m := NewMutator(StrategyShadow)

	err := inTx(t, store, func(tx *gorm.DB) error {
		if _, err := m.RenameColumn(context.Background(), tx, testTable, "notes", "memo"); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInternal, "metadata write failed")
	})
	require.Error(t, err)

	cols, err := Columns(context.Background(), store.DB(), testTable)
	require.NoError(t, err)
	require.True(t, HasColumn(cols, "notes"))
	require.False(t, HasColumn(cols, "memo"))
}

func TestNormalizeType(t *testing.T) {
	require.Equal(t, "REAL", NormalizeType("real"))
	require.Equal(t, "DATE", NormalizeType(" DATE "))
	require.Equal(t, "TEXT", NormalizeType("VARCHAR(20)"))
}
