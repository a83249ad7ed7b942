package targets

import (
	"context"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes registry operations on targets.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a targets repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, target *models.Target) error {
	return r.db.WithContext(ctx).Create(target).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Target, error) {
	var target models.Target
	if err := r.db.WithContext(ctx).First(&target, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.TargetStatus) error {
	return r.db.WithContext(ctx).Model(&models.Target{}).Where("id = ?", id).UpdateColumn("status", status).Error
}

// UpdateGoals overwrites the goals blob and reports matched rows.
func (r *Repository) UpdateGoals(ctx context.Context, id int64, goals string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Target{}).Where("id = ?", id).UpdateColumn("goals", goals)
	return res.RowsAffected, res.Error
}

// UpdateTargetUsers replaces the access list wholesale.
func (r *Repository) UpdateTargetUsers(ctx context.Context, id int64, users dbtypes.IDList) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Target{}).Where("id = ?", id).UpdateColumn("target_users", users)
	return res.RowsAffected, res.Error
}

// ListByWorkspace returns the workspace's targets, newest first.
func (r *Repository) ListByWorkspace(ctx context.Context, workspaceID int64) ([]models.Target, error) {
	var rows []models.Target
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}
