package workspaces

import (
	"context"
	"fmt"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

type userLookup interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

type workspaceLister interface {
	ListAll(ctx context.Context) ([]models.Workspace, error)
}

// RepairResult is the outcome of syncing one workspace during a fleet repair.
type RepairResult struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Synced *int   `json:"synced,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Synchronizer keeps each workspace store's members table equal to the
// registry users listed in the workspace row.
type Synchronizer struct {
	users       userLookup
	workspaces  workspaceLister
	provisioner *Provisioner
	metrics     *metrics.StorageMetrics
	logg        *logger.Logger
	group       singleflight.Group
}

func NewSynchronizer(users userLookup, workspaces workspaceLister, provisioner *Provisioner, m *metrics.StorageMetrics, logg *logger.Logger) *Synchronizer {
	return &Synchronizer{
		users:       users,
		workspaces:  workspaces,
		provisioner: provisioner,
		metrics:     m,
		logg:        logg,
	}
}

// LoadMembers resolves ids against the registry. Unknown ids drop out.
func (s *Synchronizer) LoadMembers(ctx context.Context, ids []int64) ([]models.User, error) {
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return users, nil
}

// Sync rewrites the members table of ws from ids and returns the number of
// rows written.
func (s *Synchronizer) Sync(ctx context.Context, ws *models.Workspace, ids []int64) (int, error) {
	users, err := s.LoadMembers(ctx, ids)
	if err != nil {
		return 0, err
	}
	return s.Apply(ctx, ws, users)
}

// Apply writes already-resolved users into the members table of ws.
func (s *Synchronizer) Apply(ctx context.Context, ws *models.Workspace, users []models.User) (n int, err error) {
	done := s.metrics.Track(metrics.OpMemberSync)
	defer func() { done(err) }()

	if err := s.provisioner.ReplaceMembers(ctx, ws.Name, users); err != nil {
		return 0, err
	}
	return len(users), nil
}

// RepairAll syncs every workspace from its stored membership list. A failing
// workspace is reported in its result and does not stop the batch.
// Concurrent callers share a single run.
func (s *Synchronizer) RepairAll(ctx context.Context) ([]RepairResult, error) {
	out, err, _ := s.group.Do("repair-members", func() (any, error) {
		return s.repairAll(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return out.([]RepairResult), nil
}

func (s *Synchronizer) repairAll(ctx context.Context) (results []RepairResult, err error) {
	done := s.metrics.Track(metrics.OpRepairMembers)
	defer func() { done(err) }()

	all, err := s.workspaces.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	results = make([]RepairResult, 0, len(all))
	failed := 0
	for i := range all {
		ws := &all[i]
		n, syncErr := s.Sync(ctx, ws, ws.Users)
		if syncErr != nil {
			failed++
			results = append(results, RepairResult{ID: ws.ID, Name: ws.Name, Error: syncErr.Error()})
			if s.logg != nil {
				s.logg.Error(s.logg.WithWorkspaceID(ctx, ws.ID), "workspaces.repair_failed", syncErr)
			}
			continue
		}
		synced := n
		results = append(results, RepairResult{ID: ws.ID, Name: ws.Name, Synced: &synced})
	}
	s.metrics.SetRepairFailures(failed)
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"workspaces": len(all), "failed": failed}), "workspaces.repair_complete")
	}
	return results, nil
}
