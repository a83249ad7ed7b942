package targets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/internal/activity"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/metrics"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/storage"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	defaultPeriodType = "weekly"
	// MaxPeriodDays bounds the number of date rows seeded into a new sheet.
	MaxPeriodDays = 3660
)

const createDataTable = `CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT,
    impressions REAL DEFAULT 0,
    engagements REAL DEFAULT 0,
    followers REAL DEFAULT 0,
    profile_views REAL DEFAULT 0,
    calls_booked REAL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// PeriodDays returns the inclusive day count between two YYYY-MM-DD dates,
// or zero when either is missing or unparsable.
func PeriodDays(start, end string) int {
	s, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return 0
	}
	e, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil || e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func parsePeriod(start, end string) (time.Time, int, error) {
	s, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "startDate must be YYYY-MM-DD")
	}
	e, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "endDate must be YYYY-MM-DD")
	}
	if e.Before(s) {
		return time.Time{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	days := int(e.Sub(s).Hours()/24) + 1
	if days > MaxPeriodDays {
		return time.Time{}, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("period may not exceed %d days", MaxPeriodDays))
	}
	return s, days, nil
}

// Create registers a target as pending, builds its store with one row per
// day of the period, then marks it active.
func (s *service) Create(ctx context.Context, actor types.Actor, workspaceID int64, req CreateRequest) (*CreateResult, error) {
	name := strings.TrimSpace(req.TargetName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target name required")
	}
	if strings.TrimSpace(req.StartDate) == "" || strings.TrimSpace(req.EndDate) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end date required")
	}
	start, days, err := parsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.FindByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "workspace not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load workspace")
	}

	slug := storage.TargetSlug(name, s.ids.Next())
	path := s.layout.TargetDB(ws.Name, slug)
	target := &models.Target{
		WorkspaceID:  ws.ID,
		TargetName:   name,
		TargetDBPath: path,
		Status:       enums.TargetStatusPending,
		PeriodType:   defaultPeriodType,
		StartDate:    strings.TrimSpace(req.StartDate),
		EndDate:      strings.TrimSpace(req.EndDate),
		TargetUsers:  dbtypes.IDList{},
	}
	if err := s.repo.Create(ctx, target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register target")
	}

	partial := func(step string, cause error) error {
		if s.logg != nil {
			logCtx := s.logg.WithFields(s.logg.WithTargetID(ctx, target.ID), map[string]any{
				"workspace_id": ws.ID,
				"step":         step,
				"path":         path,
			})
			s.logg.Error(logCtx, "targets.provision_failed", cause)
		}
		return pkgerrors.Wrap(pkgerrors.CodePartialFailure, cause, "target registered but storage provisioning failed").
			WithDetails(map[string]any{
				"targetId":    target.ID,
				"workspaceId": ws.ID,
				"path":        path,
				"step":        step,
			})
	}

	if err := s.provisionStore(ctx, target.ID, path, start, days); err != nil {
		return nil, partial("create_store", err)
	}
	if err := s.repo.UpdateStatus(ctx, target.ID, enums.TargetStatusActive); err != nil {
		return nil, partial("activate", err)
	}

	s.activity.Record(ctx, actor, activity.TargetCreated(target.ID, ws.ID), activity.StatusInfo)
	return &CreateResult{TargetID: target.ID, Storage: path}, nil
}

func (s *service) provisionStore(ctx context.Context, targetID int64, path string, start time.Time, days int) (err error) {
	done := s.metrics.Track(metrics.OpProvisionTarget)
	defer func() { done(err) }()

	table := storage.QuoteIdent(storage.TargetTable(targetID))
	return s.opener.Use(ctx, path, storage.ModeCreate, func(store *storage.Store) error {
		return store.WithTx(ctx, func(tx *gorm.DB) error {
			if err := tx.Exec(fmt.Sprintf(createDataTable, table)).Error; err != nil {
				return err
			}
			insert := fmt.Sprintf("INSERT INTO %s (date) VALUES (?)", table)
			for i := 0; i < days; i++ {
				if err := tx.Exec(insert, start.AddDate(0, 0, i).Format(dateLayout)).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}
