package activity

import (
	"context"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists activity log entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an activity repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a log entry.
func (r *Repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Recent returns the newest entries first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// MatchingAction returns the newest entries whose action matches the LIKE pattern.
func (r *Repository) MatchingAction(ctx context.Context, pattern string, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("action LIKE ?", pattern).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
