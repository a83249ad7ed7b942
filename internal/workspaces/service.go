package workspaces

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

const defaultStatus = "Active"

// Names that may never be removed through the delete endpoint.
var systemNames = map[string]struct{}{
	"users":           {},
	"sqlite_sequence": {},
	"activity_logs":   {},
	"workspaces":      {},
	"targets":         {},
}

type repository interface {
	Create(ctx context.Context, ws *models.Workspace) error
	FindByID(ctx context.Context, id int64) (*models.Workspace, error)
	Rename(ctx context.Context, id int64, name string) error
	UpdateDetails(ctx context.Context, id int64, displayName string, users dbtypes.IDList, adminID *int64) (int64, error)
	ListSummaries(ctx context.Context) ([]Summary, error)
	DeleteByName(ctx context.Context, name string) (*models.Workspace, error)
}

// Service implements workspace lifecycle and membership operations.
type Service interface {
	Create(ctx context.Context, actor types.Actor, req CreateRequest) (*CreateResult, error)
	Update(ctx context.Context, actor types.Actor, req UpdateRequest) (*UpdateResult, error)
	List(ctx context.Context, actor types.Actor) ([]SummaryDTO, error)
	Delete(ctx context.Context, actor types.Actor, req DeleteRequest) error
	Members(ctx context.Context, workspaceID int64) ([]Member, error)
	RepairMembers(ctx context.Context, actor types.Actor) ([]RepairResult, error)
}

// ServiceParams bundles the dependencies of the workspaces service.
type ServiceParams struct {
	Repo         repository
	Provisioner  *Provisioner
	Synchronizer *Synchronizer
	Activity     activity.Recorder
	Logger       *logger.Logger
}

type service struct {
	repo        repository
	provisioner *Provisioner
	sync        *Synchronizer
	activity    activity.Recorder
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("workspace repository is required")
	case params.Provisioner == nil:
		return nil, fmt.Errorf("workspace provisioner is required")
	case params.Synchronizer == nil:
		return nil, fmt.Errorf("member synchronizer is required")
	case params.Activity == nil:
		return nil, fmt.Errorf("activity recorder is required")
	}
	return &service{
		repo:        params.Repo,
		provisioner: params.Provisioner,
		sync:        params.Synchronizer,
		activity:    params.Activity,
		logg:        params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, actor types.Actor, req CreateRequest) (*CreateResult, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" || len(req.Columns) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid workspace data")
	}
	columns, err := SanitizeColumns(req.Columns)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	slug := storage.Sanitize(displayName)

	labels, err := jsonStrings(req.Columns)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode columns")
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = defaultStatus
	}
	users := req.Users
	if users == nil {
		users = dbtypes.IDList{}
	}

	ws := &models.Workspace{
		Name:        slug,
		DisplayName: displayName,
		AdminID:     req.AdminID,
		Users:       users,
		Status:      status,
		Columns:     labels,
	}
	if err := s.repo.Create(ctx, ws); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "workspace name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register workspace")
	}

	finalName := storage.WorkspaceName(slug, ws.ID)
	path := s.provisioner.Layout().WorkspaceDB(finalName)
	partial := func(step string, cause error) error {
		if s.logg != nil {
			logCtx := s.logg.WithFields(s.logg.WithWorkspaceID(ctx, ws.ID), map[string]any{"step": step, "path": path})
			s.logg.Error(logCtx, "workspaces.provision_failed", cause)
		}
		return pkgerrors.Wrap(pkgerrors.CodePartialFailure, cause, "workspace registered but storage provisioning failed").
			WithDetails(map[string]any{
				"workspaceId": ws.ID,
				"name":        finalName,
				"path":        path,
				"step":        step,
			})
	}

	members, err := s.sync.LoadMembers(ctx, users)
	if err != nil {
		return nil, partial("load_members", err)
	}
	if _, err := s.provisioner.CreateStore(ctx, finalName, columns, members); err != nil {
		return nil, partial("create_store", err)
	}
	if err := s.repo.Rename(ctx, ws.ID, finalName); err != nil {
		return nil, partial("rename_registry", err)
	}

	s.activity.Record(ctx, actor, activity.WorkspaceCreated(finalName), activity.StatusInfo)
	return &CreateResult{WorkspaceID: ws.ID, TableName: finalName}, nil
}

func (s *service) Update(ctx context.Context, actor types.Actor, req UpdateRequest) (*UpdateResult, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if req.WorkspaceID <= 0 || displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id and name required")
	}
	users := req.Users
	if users == nil {
		users = dbtypes.IDList{}
	}

	affected, err := s.repo.UpdateDetails(ctx, req.WorkspaceID, displayName, users, req.AdminID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update workspace")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
	}
	ws, err := s.repo.FindByID(ctx, req.WorkspaceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload workspace")
	}

	partial := func(step string, cause error) error {
		return pkgerrors.Wrap(pkgerrors.CodePartialFailure, cause, "workspace updated but member sync failed").
			WithDetails(map[string]any{"workspaceId": ws.ID, "name": ws.Name, "step": step})
	}
	// Resolve users before touching the store so a registry failure never
	// wipes the current members.
	members, err := s.sync.LoadMembers(ctx, users)
	if err != nil {
		return nil, partial("load_members", err)
	}
	n, err := s.sync.Apply(ctx, ws, members)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeStorageMissing) {
			return nil, partial("storage_missing", err)
		}
		return nil, partial("sync_members", err)
	}

	s.activity.Record(ctx, actor, activity.WorkspaceUpdated(ws.ID), activity.StatusInfo)
	return &UpdateResult{WorkspaceID: ws.ID, Synced: n, Message: "workspace and members updated"}, nil
}

func (s *service) List(ctx context.Context, actor types.Actor) ([]SummaryDTO, error) {
	rows, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list workspaces")
	}
	out := make([]SummaryDTO, 0, len(rows))
	for _, row := range rows {
		if !actor.Role.IsExecutive() && !visibleTo(row, actor.UserID) {
			continue
		}
		users := row.Users
		if users == nil {
			users = dbtypes.IDList{}
		}
		out = append(out, SummaryDTO{
			ID:          row.ID,
			Name:        row.Name,
			DisplayName: row.DisplayName,
			ManagedBy:   row.ManagedBy,
			Users:       users,
			TargetCount: row.TargetCount,
		})
	}
	return out, nil
}

func visibleTo(row Summary, userID int64) bool {
	if row.AdminID != nil && *row.AdminID == userID {
		return true
	}
	return row.Users.Contains(userID)
}

func (s *service) Delete(ctx context.Context, actor types.Actor, req DeleteRequest) error {
	name := strings.TrimSpace(req.TableName)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "workspace name required")
	}
	if _, reserved := systemNames[strings.ToLower(name)]; reserved {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete system resources")
	}
	if !storage.IsSafeIdentifier(name) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid workspace name")
	}

	ws, err := s.repo.DeleteByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove workspace from registry")
	}

	if err := s.provisioner.Layout().RemoveWorkspace(name); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePartialFailure, err, "removed from registry but failed to delete files").
			WithDetails(map[string]any{"workspaceId": ws.ID, "name": name, "step": "remove_folder"})
	}
	s.activity.Record(ctx, actor, activity.WorkspaceDeleted(name), activity.StatusWarning)
	return nil
}

func (s *service) Members(ctx context.Context, workspaceID int64) ([]Member, error) {
	ws, err := s.repo.FindByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load workspace")
	}
	members, err := s.provisioner.Members(ctx, ws.Name)
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "read workspace members")
	}
	return members, nil
}

func (s *service) RepairMembers(ctx context.Context, actor types.Actor) ([]RepairResult, error) {
	results, err := s.sync.RepairAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "repair members")
	}
	s.activity.Record(ctx, actor, activity.ActionMembersRepaired, activity.StatusInfo)
	return results, nil
}
