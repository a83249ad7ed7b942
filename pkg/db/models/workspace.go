package models

import (
	"time"

	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
)

// Workspace is the registry record of a workspace folder. Name is the internal
// folder key; Users is the denormalized membership list.
type Workspace struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string         `gorm:"column:name;not null;uniqueIndex"`
	DisplayName string         `gorm:"column:display_name"`
	AdminID     *int64         `gorm:"column:admin_id"`
	Users       dbtypes.IDList `gorm:"column:users;type:text"`
	Status      string         `gorm:"column:status"`
	Columns     string         `gorm:"column:columns;type:text"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Workspace) TableName() string { return "workspaces" }
