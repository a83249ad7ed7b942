package workspaces

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/testutil"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/users"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRecorder struct {
	mu      sync.Mutex
	actions []string
}

func (s *stubRecorder) Record(ctx context.Context, actor types.Actor, action, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

type fixture struct {
	conn     *gorm.DB
	repo     *Repository
	layout   storage.Layout
	prov     *Provisioner
	sync     *Synchronizer
	svc      Service
	recorder *stubRecorder
	metrics  *metrics.StorageMetrics
	reg      *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := testutil.NewRegistry(t)
	layout, err := storage.NewLayout(t.TempDir())
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	m := metrics.NewStorageMetrics(reg)
	repo := NewRepository(conn)
	prov := NewProvisioner(layout, storage.NewOpener(storage.Options{}), m)
	syncer := NewSynchronizer(users.NewRepository(conn), repo, prov, m, nil)
	recorder := &stubRecorder{}
	svc, err := NewService(ServiceParams{Repo: repo, Provisioner: prov, Synchronizer: syncer, Activity: recorder})
	require.NoError(t, err)
	return fixture{conn: conn, repo: repo, layout: layout, prov: prov, sync: syncer, svc: svc, recorder: recorder, metrics: m, reg: reg}
}

var owner = types.Actor{UserID: 1, Email: "owner@example.com", Role: enums.UserRoleOwner}

func TestCreateProvisionsStoreAndMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.conn, "Alice", "alice@example.com", enums.UserRoleTeam)
	bob := testutil.SeedUser(t, f.conn, "Bob", "bob@example.com", enums.UserRoleClient)

	res, err := f.svc.Create(ctx, owner, CreateRequest{
		DisplayName: "Acme Corp",
		Columns:     []string{"Post Link", "Notes"},
		Users:       dbtypes.IDList{alice.ID, bob.ID, 999},
	})
	require.NoError(t, err)
	require.Equal(t, storage.WorkspaceName("acme_corp", res.WorkspaceID), res.TableName)

	ws, err := f.repo.FindByID(ctx, res.WorkspaceID)
	require.NoError(t, err)
	require.Equal(t, res.TableName, ws.Name)
	require.Equal(t, `["Post Link","Notes"]`, ws.Columns)
	require.Equal(t, "Active", ws.Status)

	require.FileExists(t, f.layout.WorkspaceDB(res.TableName))
	members, err := f.svc.Members(ctx, res.WorkspaceID)
	require.NoError(t, err)
	require.Len(t, members, 2, "unknown ids drop out")
	require.Equal(t, alice.ID, members[0].UserID)
	require.Equal(t, "team", members[0].Role)

	err = f.prov.opener.Use(ctx, f.layout.WorkspaceDB(res.TableName), storage.ModeReadOnly, func(store *storage.Store) error {
		cols, err := store.DB().Migrator().ColumnTypes("data_table")
		if err != nil {
			return err
		}
		names := make([]string, 0, len(cols))
		for _, c := range cols {
			names = append(names, c.Name())
		}
		require.Equal(t, []string{"id", "target_id", "post_link", "notes", "added_by", "created_at"}, names)
		require.True(t, store.DB().Migrator().HasTable("targets"))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, f.opCount(t, metrics.OpProvisionWorkspace, "success"))
}

func (f fixture) opCount(t *testing.T, op, outcome string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "portal_storage_op_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["op"] == op && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCreateRejectsBadColumnsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := [][]string{
		{},
		{"Notes", "notes"},
		{"created_at"},
		{"Target ID"},
	}
	for _, cols := range cases {
		_, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Bad", Columns: cols})
		require.Truef(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "columns %v: %v", cols, err)
	}

	var count int64
	require.NoError(t, f.conn.Model(&models.Workspace{}).Count(&count).Error)
	require.Zero(t, count)
	entries, err := os.ReadDir(f.layout.Root())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCreateDuplicateBaseNameConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.repo.Create(ctx, &models.Workspace{Name: "acme", DisplayName: "pending"}))

	_, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Acme", Columns: []string{"a"}})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestCreateStorageFailureIsPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// A regular file where the workspace folder should go blocks mkdir.
	blocker := filepath.Join(f.layout.Root(), "ws_blocked_1")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Blocked", Columns: []string{"a"}})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodePartialFailure), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 1, details["workspaceId"])
	require.Equal(t, "ws_blocked_1", details["name"])
	require.Equal(t, "create_store", details["step"])
}

func TestUpdateSyncsMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.conn, "Alice", "alice@example.com", enums.UserRoleTeam)
	bob := testutil.SeedUser(t, f.conn, "Bob", "bob@example.com", enums.UserRoleClient)

	created, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Crew", Columns: []string{"a"}, Users: dbtypes.IDList{alice.ID}})
	require.NoError(t, err)

	res, err := f.svc.Update(ctx, owner, UpdateRequest{WorkspaceID: created.WorkspaceID, DisplayName: "Crew 2", Users: dbtypes.IDList{bob.ID}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Synced)

	members, err := f.svc.Members(ctx, created.WorkspaceID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, bob.ID, members[0].UserID)

	ws, err := f.repo.FindByID(ctx, created.WorkspaceID)
	require.NoError(t, err)
	require.Equal(t, "Crew 2", ws.DisplayName)
	require.Equal(t, dbtypes.IDList{bob.ID}, ws.Users)

	_, err = f.svc.Update(ctx, owner, UpdateRequest{WorkspaceID: 404, DisplayName: "x"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUpdateMissingStoreIsPartialAndNotRecreated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Gone", Columns: []string{"a"}})
	require.NoError(t, err)
	path := f.layout.WorkspaceDB(created.TableName)
	require.NoError(t, os.Remove(path))

	_, err = f.svc.Update(ctx, owner, UpdateRequest{WorkspaceID: created.WorkspaceID, DisplayName: "Gone"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodePartialFailure), "got %v", err)
	require.NoFileExists(t, path)
}

func TestRepairAllContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.conn, "Alice", "alice@example.com", enums.UserRoleTeam)

	good, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Good", Columns: []string{"a"}})
	require.NoError(t, err)
	broken, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Broken", Columns: []string{"a"}})
	require.NoError(t, err)
	malformed, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Malformed", Columns: []string{"a"}, Users: dbtypes.IDList{alice.ID}})
	require.NoError(t, err)

	require.NoError(t, f.conn.Exec("UPDATE workspaces SET users = ? WHERE id = ?", fmt.Sprintf(`["%d"]`, alice.ID), good.WorkspaceID).Error)
	require.NoError(t, f.conn.Exec("UPDATE workspaces SET users = 'not json' WHERE id = ?", malformed.WorkspaceID).Error)
	require.NoError(t, os.Remove(f.layout.WorkspaceDB(broken.TableName)))

	results, err := f.svc.RepairMembers(ctx, owner)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[int64]RepairResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	require.NotNil(t, byID[good.WorkspaceID].Synced)
	require.Equal(t, 1, *byID[good.WorkspaceID].Synced)
	require.NotEmpty(t, byID[broken.WorkspaceID].Error)
	require.NotNil(t, byID[malformed.WorkspaceID].Synced)
	require.Equal(t, 0, *byID[malformed.WorkspaceID].Synced)

	members, err := f.svc.Members(ctx, malformed.WorkspaceID)
	require.NoError(t, err)
	require.Empty(t, members, "malformed list syncs as empty")
	require.NoFileExists(t, f.layout.WorkspaceDB(broken.TableName))
	require.Equal(t, 1.0, f.opCount(t, metrics.OpRepairMembers, "success"))
}

func TestRepairAllConcurrentCallersShareResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "One", Columns: []string{"a"}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := f.sync.RepairAll(ctx)
			if err == nil && len(results) != 1 {
				err = pkgerrors.New(pkgerrors.CodeInternal, "unexpected result count")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestDeleteRemovesRegistryRowsAndFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Doomed", Columns: []string{"a"}})
	require.NoError(t, err)
	require.NoError(t, f.conn.Create(&models.Target{WorkspaceID: created.WorkspaceID, TargetName: "t", Status: enums.TargetStatusActive}).Error)

	require.True(t, pkgerrors.Is(f.svc.Delete(ctx, owner, DeleteRequest{TableName: "users"}), pkgerrors.CodeForbidden))
	require.True(t, pkgerrors.Is(f.svc.Delete(ctx, owner, DeleteRequest{TableName: "../etc"}), pkgerrors.CodeValidation))

	require.NoError(t, f.svc.Delete(ctx, owner, DeleteRequest{TableName: created.TableName}))
	require.NoDirExists(t, f.layout.WorkspaceDir(created.TableName))

	var targets int64
	require.NoError(t, f.conn.Model(&models.Target{}).Where("workspace_id = ?", created.WorkspaceID).Count(&targets).Error)
	require.Zero(t, targets)

	require.True(t, pkgerrors.Is(f.svc.Delete(ctx, owner, DeleteRequest{TableName: created.TableName}), pkgerrors.CodeNotFound))
}

func TestListScopesNonExecutives(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := testutil.SeedUser(t, f.conn, "Admin", "admin@example.com", enums.UserRoleAdmin)
	team := testutil.SeedUser(t, f.conn, "Team", "team@example.com", enums.UserRoleTeam)

	managed, err := f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Managed", Columns: []string{"a"}, AdminID: &admin.ID})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Member", Columns: []string{"a"}, Users: dbtypes.IDList{team.ID}})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, owner, CreateRequest{DisplayName: "Other", Columns: []string{"a"}})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 3)

	adminView, err := f.svc.List(ctx, types.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	require.Len(t, adminView, 1)
	require.Equal(t, managed.WorkspaceID, adminView[0].ID)
	require.NotNil(t, adminView[0].ManagedBy)
	require.Equal(t, "Admin", *adminView[0].ManagedBy)

	teamView, err := f.svc.List(ctx, types.Actor{UserID: team.ID, Role: enums.UserRoleTeam})
	require.NoError(t, err)
	require.Len(t, teamView, 1)
	require.Equal(t, "Member", teamView[0].DisplayName)
}
