package workspaces

import (
	"context"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"gorm.io/gorm"
)

// Repository exposes registry operations on workspaces.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a workspaces repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, ws *models.Workspace) error {
	return r.db.WithContext(ctx).Create(ws).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Workspace, error) {
	var ws models.Workspace
	if err := r.db.WithContext(ctx).First(&ws, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// Rename stores the final internal name once the folder exists.
func (r *Repository) Rename(ctx context.Context, id int64, name string) error {
	return r.db.WithContext(ctx).Model(&models.Workspace{}).Where("id = ?", id).UpdateColumn("name", name).Error
}

// UpdateDetails overwrites display name, membership list and admin. It
// reports the number of matched rows.
func (r *Repository) UpdateDetails(ctx context.Context, id int64, displayName string, users dbtypes.IDList, adminID *int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"display_name": displayName,
			"users":        users,
			"admin_id":     adminID,
		})
	return res.RowsAffected, res.Error
}

// ListAll returns every workspace ordered by id.
func (r *Repository) ListAll(ctx context.Context) ([]models.Workspace, error) {
	var rows []models.Workspace
	err := r.db.WithContext(ctx).Order("id").Find(&rows).Error
	return rows, err
}

// Summary is a workspace row joined with its admin's name and target count.
type Summary struct {
	ID          int64          `gorm:"column:id"`
	Name        string         `gorm:"column:name"`
	DisplayName string         `gorm:"column:display_name"`
	AdminID     *int64         `gorm:"column:admin_id"`
	ManagedBy   *string        `gorm:"column:managed_by"`
	Users       dbtypes.IDList `gorm:"column:users"`
	TargetCount int64          `gorm:"column:target_count"`
}

// ListSummaries returns every workspace, newest first.
func (r *Repository) ListSummaries(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	err := r.db.WithContext(ctx).
		Table("workspaces AS w").
		Select(`w.id, w.name, w.display_name, w.admin_id, u.name AS managed_by, w.users,
			(SELECT COUNT(*) FROM targets t WHERE t.workspace_id = w.id) AS target_count`).
		Joins("LEFT JOIN users u ON w.admin_id = u.id").
		Order("w.created_at DESC").
		Order("w.id DESC").
		Scan(&rows).Error
	return rows, err
}

// DeleteByName removes the workspace row and its target rows in one
// transaction and returns the deleted workspace.
func (r *Repository) DeleteByName(ctx context.Context, name string) (*models.Workspace, error) {
	var ws models.Workspace
	err := db.RunTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).First(&ws).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", ws.ID).Delete(&models.Target{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workspace{}, "id = ?", ws.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &ws, nil
}
