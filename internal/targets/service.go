package targets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/schema"
	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/workspaces"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/ids"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

// Cells that PATCH /rows may change.
var editableFields = map[string]struct{}{
	"impressions":   {},
	"engagements":   {},
	"followers":     {},
	"profile_views": {},
	"calls_booked":  {},
	"date":          {},
}

type repository interface {
	Create(ctx context.Context, target *models.Target) error
	FindByID(ctx context.Context, id int64) (*models.Target, error)
	UpdateStatus(ctx context.Context, id int64, status enums.TargetStatus) error
	UpdateGoals(ctx context.Context, id int64, goals string) (int64, error)
	UpdateTargetUsers(ctx context.Context, id int64, users dbtypes.IDList) (int64, error)
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]models.Target, error)
}

type workspaceFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Workspace, error)
}

type memberReader interface {
	Members(ctx context.Context, name string) ([]workspaces.Member, error)
}

type userLookup interface {
	FindByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

type logReader interface {
	ForTarget(ctx context.Context, targetID int64) ([]models.ActivityLog, error)
}

// Service covers target provisioning, sheet data, columns, metrics and access.
type Service interface {
	Create(ctx context.Context, actor types.Actor, workspaceID int64, req CreateRequest) (*CreateResult, error)
	List(ctx context.Context, actor types.Actor, workspaceID int64) ([]Summary, error)
	Inspect(ctx context.Context, targetID int64) (*Inspection, error)

	Data(ctx context.Context, actor types.Actor, ref Ref) (*Data, error)
	AddRow(ctx context.Context, actor types.Actor, ref Ref, values map[string]any) (*AddRowResult, error)
	UpdateCell(ctx context.Context, actor types.Actor, ref Ref, rowID int64, req UpdateCellRequest) error
	DeleteRow(ctx context.Context, actor types.Actor, ref Ref, rowID int64) error

	AddColumn(ctx context.Context, actor types.Actor, ref Ref, req AddColumnRequest) (*AddColumnResult, error)
	RenameColumn(ctx context.Context, actor types.Actor, ref Ref, name string, req RenameColumnRequest) (*RenameColumnResult, error)
	DeleteColumn(ctx context.Context, actor types.Actor, ref Ref, name string) error

	Members(ctx context.Context, actor types.Actor, ref Ref) ([]Member, error)
	SetMembers(ctx context.Context, actor types.Actor, ref Ref, req SetMembersRequest) error

	UpdateGoals(ctx context.Context, actor types.Actor, ref Ref, req UpdateGoalsRequest) error
	Metrics(ctx context.Context, actor types.Actor, ref Ref) (*MetricsReport, error)
	AddMetric(ctx context.Context, actor types.Actor, ref Ref, req AddMetricRequest) (*MetricDef, error)
	RenameMetric(ctx context.Context, actor types.Actor, ref Ref, key string, req RenameMetricRequest) (*MetricDef, error)
	RemoveMetric(ctx context.Context, actor types.Actor, ref Ref, key string) error

	Logs(ctx context.Context, targetID int64) ([]models.ActivityLog, error)
}

// ServiceParams bundles the dependencies of the targets service.
type ServiceParams struct {
	Repo       repository
	Workspaces workspaceFinder
	Members    memberReader
	Users      userLookup
	Activity   activity.Recorder
	Logs       logReader
	Layout     storage.Layout
	Opener     *storage.Opener
	Mutator    *schema.Mutator
	IDs        ids.Generator
	Metrics    *metrics.StorageMetrics
	Logger     *logger.Logger
}

type service struct {
	repo       repository
	workspaces workspaceFinder
	members    memberReader
	users      userLookup
	activity   activity.Recorder
	logs       logReader
	layout     storage.Layout
	opener     *storage.Opener
	mutator    *schema.Mutator
	ids        ids.Generator
	metrics    *metrics.StorageMetrics
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("target repository is required")
	case params.Workspaces == nil:
		return nil, fmt.Errorf("workspace finder is required")
	case params.Members == nil:
		return nil, fmt.Errorf("member reader is required")
	case params.Users == nil:
		return nil, fmt.Errorf("user lookup is required")
	case params.Activity == nil:
		return nil, fmt.Errorf("activity recorder is required")
	case params.Opener == nil:
		return nil, fmt.Errorf("store opener is required")
	case params.Layout.Root() == "":
		return nil, fmt.Errorf("storage layout is required")
	}
	mutator := params.Mutator
	if mutator == nil {
		mutator = schema.NewMutator(schema.StrategyAuto)
	}
	gen := params.IDs
	if gen == nil {
		gen = ids.Default()
	}
	return &service{
		repo:       params.Repo,
		workspaces: params.Workspaces,
		members:    params.Members,
		users:      params.Users,
		activity:   params.Activity,
		logs:       params.Logs,
		layout:     params.Layout,
		opener:     params.Opener,
		mutator:    mutator,
		ids:        gen,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// load resolves ref and enforces the workspace scope and per-target access.
func (s *service) load(ctx context.Context, actor types.Actor, ref Ref, requireWorkspace bool) (*models.Target, error) {
	if ref.TargetID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target id")
	}
	if requireWorkspace && ref.WorkspaceID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workspace id required")
	}
	target, err := s.repo.FindByID(ctx, ref.TargetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load target")
	}
	if ref.WorkspaceID > 0 && target.WorkspaceID != ref.WorkspaceID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target not found")
	}
	if !canAccess(actor, target) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "target not assigned to user")
	}
	if target.Status == enums.TargetStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "target storage is still being provisioned")
	}
	return target, nil
}

func (s *service) List(ctx context.Context, actor types.Actor, workspaceID int64) ([]Summary, error) {
	if workspaceID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid workspace id")
	}
	rows, err := s.repo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list targets")
	}
	out := make([]Summary, 0, len(rows))
	for i := range rows {
		t := &rows[i]
		if !canAccess(actor, t) {
			continue
		}
		users := t.TargetUsers
		if users == nil {
			users = dbtypes.IDList{}
		}
		out = append(out, Summary{
			ID:          t.ID,
			Name:        t.TargetName,
			Storage:     t.TargetDBPath,
			Status:      string(t.Status),
			TargetUsers: users,
		})
	}
	return out, nil
}

// Inspect reports on a target's registry row and store without going through
// access checks. It backs the operator CLI.
func (s *service) Inspect(ctx context.Context, targetID int64) (*Inspection, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load target")
	}
	out := &Inspection{
		ID:          target.ID,
		WorkspaceID: target.WorkspaceID,
		Name:        target.TargetName,
		Status:      string(target.Status),
		Path:        target.TargetDBPath,
	}
	if info, statErr := os.Stat(target.TargetDBPath); statErr != nil || info.IsDir() {
		return out, nil
	}
	out.Exists = true
	table := storage.TargetTable(target.ID)
	err = s.opener.Use(ctx, target.TargetDBPath, storage.ModeReadOnly, func(store *storage.Store) error {
		conn := store.DB().WithContext(ctx)
		cols, err := schema.Columns(ctx, conn, table)
		if err != nil {
			return err
		}
		out.Columns = cols
		return conn.Table(table).Count(&out.RowCount).Error
	})
	if err != nil {
		out.Error = err.Error()
	}
	return out, nil
}

func (s *service) Data(ctx context.Context, actor types.Actor, ref Ref) (*Data, error) {
	target, err := s.load(ctx, actor, ref, true)
	if err != nil {
		return nil, err
	}
	workspaceName := "Unknown Workspace"
	if ws, err := s.workspaces.FindByID(ctx, target.WorkspaceID); err == nil {
		workspaceName = ws.DisplayName
		if workspaceName == "" {
			workspaceName = ws.Name
		}
	}

	table := storage.TargetTable(target.ID)
	var (
		cols []schema.Column
		rows []map[string]any
	)
	err = s.opener.Use(ctx, target.TargetDBPath, storage.ModeReadOnly, func(store *storage.Store) error {
		conn := store.DB().WithContext(ctx)
		var err error
		if cols, err = schema.Columns(ctx, conn, table); err != nil {
			return err
		}
		return conn.Table(table).Order("date ASC").Order("id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "read target data")
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	for _, row := range rows {
		normalizeRow(row)
	}

	return &Data{
		TargetName:    target.TargetName,
		WorkspaceName: workspaceName,
		Goals:         target.Goals,
		PeriodType:    optional(target.PeriodType),
		StartDate:     optional(target.StartDate),
		EndDate:       optional(target.EndDate),
		Columns:       toDataColumns(cols),
		Rows:          rows,
	}, nil
}

// normalizeRow turns driver byte slices into strings so rows encode as text.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}

func (s *service) AddRow(ctx context.Context, actor types.Actor, ref Ref, values map[string]any) (*AddRowResult, error) {
	target, err := s.load(ctx, actor, ref, true)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if k == "id" || k == "created_at" {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("value for %q must be a scalar", k))
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no data provided")
	}
	sort.Strings(keys)

	table := storage.TargetTable(target.ID)
	var rowID int64
	err = s.opener.Use(ctx, target.TargetDBPath, storage.ModeReadWrite, func(store *storage.Store) error {
		return store.WithTx(ctx, func(tx *gorm.DB) error {
			cols, err := schema.Columns(ctx, tx, table)
			if err != nil {
				return err
			}
			args := make([]any, len(keys))
			for i, k := range keys {
				if !schema.HasColumn(cols, k) {
					return pkgerrors.New(pkgerrors.CodeValidation, "unknown column").
						WithDetails(map[string]any{"column": k})
				}
				args[i] = values[k]
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
			stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				storage.QuoteIdent(table), storage.QuoteIdents(keys), placeholders)
			if err := tx.Exec(stmt, args...).Error; err != nil {
				return err
			}
			return tx.Raw("SELECT last_insert_rowid()").Scan(&rowID).Error
		})
	})
	if err != nil {
		return nil, pkgerrors.Ensure(err, pkgerrors.CodeInternal, "insert row")
	}
	return &AddRowResult{RowID: rowID}, nil
}

func (s *service) UpdateCell(ctx context.Context, actor types.Actor, ref Ref, rowID int64, req UpdateCellRequest) error {
	if _, ok := editableFields[req.Field]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid field name")
	}
	switch req.Value.(type) {
	case map[string]any, []any:
		return pkgerrors.New(pkgerrors.CodeValidation, "value must be a scalar")
	}
	target, err := s.load(ctx, actor, ref, false)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s = ? WHERE id = ?",
		storage.QuoteIdent(storage.TargetTable(target.ID)), storage.QuoteIdent(req.Field))
	return s.execRow(ctx, target, stmt, req.Value, rowID)
}

func (s *service) DeleteRow(ctx context.Context, actor types.Actor, ref Ref, rowID int64) error {
	target, err := s.load(ctx, actor, ref, true)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ?", storage.QuoteIdent(storage.TargetTable(target.ID)))
	return s.execRow(ctx, target, stmt, rowID)
}

// execRow runs a single-row statement and maps zero affected rows to NOT_FOUND.
func (s *service) execRow(ctx context.Context, target *models.Target, stmt string, args ...any) error {
	err := s.opener.Use(ctx, target.TargetDBPath, storage.ModeReadWrite, func(store *storage.Store) error {
		res := store.DB().WithContext(ctx).Exec(stmt, args...)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "row not found")
		}
		return nil
	})
	return pkgerrors.Ensure(err, pkgerrors.CodeInternal, "update target data")
}

func (s *service) Logs(ctx context.Context, targetID int64) ([]models.ActivityLog, error) {
	if targetID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target id")
	}
	if s.logs == nil {
		return []models.ActivityLog{}, nil
	}
	rows, err := s.logs.ForTarget(ctx, targetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read target logs")
	}
	return rows, nil
}

func (s *service) logError(ctx context.Context, targetID int64, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithTargetID(ctx, targetID), msg, err)
}
