package models

import (
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
)

// User is a registry user. Avatar is an opaque client-supplied string.
type User struct {
	ID             int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string           `gorm:"column:name"`
	Email          string           `gorm:"column:email;not null;uniqueIndex"`
	Password       string           `gorm:"column:password;not null"`
	Role           enums.UserRole   `gorm:"column:role;not null"`
	Status         enums.UserStatus `gorm:"column:status;not null;default:'Active'"`
	FailedAttempts int              `gorm:"column:failed_attempts;not null;default:0"`
	Avatar         *string          `gorm:"column:avatar"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string { return "users" }
