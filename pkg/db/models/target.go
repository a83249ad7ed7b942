package models

import (
	"time"

	dbtypes "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db/types"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
)

// Target is the registry record of a metric sheet. TargetDBPath is the only
// record of where its store lives and is never recomputed.
type Target struct {
	ID           int64              `gorm:"column:id;primaryKey;autoIncrement"`
	WorkspaceID  int64              `gorm:"column:workspace_id;not null;index"`
	TargetName   string             `gorm:"column:target_name;not null"`
	TargetDBPath string             `gorm:"column:target_db_path"`
	Status       enums.TargetStatus `gorm:"column:status;not null;default:'pending'"`
	Goals        *string            `gorm:"column:goals;type:text"`
	PeriodType   string             `gorm:"column:period_type;not null;default:'weekly'"`
	StartDate    string             `gorm:"column:start_date"`
	EndDate      string             `gorm:"column:end_date"`
	TargetUsers  dbtypes.IDList     `gorm:"column:target_users;type:text"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (Target) TableName() string { return "targets" }
