package users

import (
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/models"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Role           enums.UserRole   `json:"role"`
	Status         enums.UserStatus `json:"status"`
	FailedAttempts int              `json:"failed_attempts"`
	Avatar         *string          `json:"avatar,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// RegisterRequest is the body of POST /api/users/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=owner ceo admin team client"`
	Name     string `json:"name"`
}

// ToggleStatusRequest sets Status explicitly or, when empty, flips the current one.
type ToggleStatusRequest struct {
	UserID int64  `json:"userId" validate:"required,gt=0"`
	Status string `json:"status,omitempty" validate:"omitempty,oneof=Active Blocked"`
}

// ResetPasswordRequest is an admin reset of another user's password.
type ResetPasswordRequest struct {
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		Status:         u.Status,
		FailedAttempts: u.FailedAttempts,
		Avatar:         u.Avatar,
		CreatedAt:      u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName falls back to the local part of the email.
func DisplayName(name, email string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
