package users

import (
	"context"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and fills in its id.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads the users whose id is in ids, ordered by id. Unknown ids are
// skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error
	return users, err
}

// List returns users, optionally restricted to roles.
func (r *Repository) List(ctx context.Context, roles []enums.UserRole) ([]models.User, error) {
	q := r.db.WithContext(ctx).Order("id")
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var users []models.User
	err := q.Find(&users).Error
	return users, err
}

// UpdateStatus sets status and clears the failed-attempt counter.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.UserStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"status": status, "failed_attempts": 0})
	return res.RowsAffected, res.Error
}

// UpdatePassword stores a new hash; resetAttempts also clears the lockout counter.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string, resetAttempts bool) (int64, error) {
	values := map[string]any{"password": hash}
	if resetAttempts {
		values["failed_attempts"] = 0
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(values)
	return res.RowsAffected, res.Error
}

// UpdateAvatar overwrites the avatar blob.
func (r *Repository) UpdateAvatar(ctx context.Context, id int64, avatar string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("avatar", avatar)
	return res.RowsAffected, res.Error
}

// SetFailedAttempts overwrites the failed-attempt counter.
func (r *Repository) SetFailedAttempts(ctx context.Context, id int64, attempts int) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("failed_attempts", attempts).Error
}

// Lock blocks the user and records the final attempt count.
func (r *Repository) Lock(ctx context.Context, id int64, attempts int) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"status": enums.UserStatusBlocked, "failed_attempts": attempts}).Error
}

// Save writes every column of user.
func (r *Repository) Save(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete removes a user and reports how many rows went away.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
