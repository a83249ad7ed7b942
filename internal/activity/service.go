package activity

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/types"
)

// RecentLimit caps every log listing.
const RecentLimit = 50

const systemEmail = "SYSTEM"

type repository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
	MatchingAction(ctx context.Context, pattern string, limit int) ([]models.ActivityLog, error)
}

// Recorder is the write side handed to other services.
type Recorder interface {
	Record(ctx context.Context, actor types.Actor, action, status string)
}

// Service records and lists activity entries.
type Service struct {
	repo repository
	logg *logger.Logger
}

// NewService wires the activity service.
func NewService(repo repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// Record appends an entry. Failures are logged and swallowed so an audit
// write never fails the operation it describes.
func (s *Service) Record(ctx context.Context, actor types.Actor, action, status string) {
	entry := &models.ActivityLog{
		Email:     actor.Email,
		Action:    action,
		IPAddress: actor.IP,
		Status:    status,
	}
	if actor.UserID > 0 {
		id := actor.UserID
		entry.UserID = &id
	}
	if entry.Email == "" {
		entry.Email = systemEmail
	}
	if err := s.repo.Create(ctx, entry); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"action": action})
		s.logg.Error(logCtx, "activity.record_failed", err)
	}
}

// Recent lists the newest entries.
func (s *Service) Recent(ctx context.Context) ([]models.ActivityLog, error) {
	logs, err := s.repo.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list activity logs")
	}
	return logs, nil
}

// ForTarget lists the newest target actions tagged with _ID_<targetID>.
// The LIKE prefilter over-matches (ID_1 also hits ID_12); the id boundary is
// enforced in Go.
func (s *Service) ForTarget(ctx context.Context, targetID int64) ([]models.ActivityLog, error) {
	id := strconv.FormatInt(targetID, 10)
	pattern := "%TARGET_%_ID_" + id + "%"
	exact := regexp.MustCompile(`_ID_` + id + `(_|$)`)

	candidates, err := s.repo.MatchingAction(ctx, pattern, RecentLimit*4)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list target logs")
	}
	out := make([]models.ActivityLog, 0, len(candidates))
	for _, entry := range candidates {
		if !exact.MatchString(entry.Action) {
			continue
		}
		out = append(out, entry)
		if len(out) == RecentLimit {
			break
		}
	}
	return out, nil
}
