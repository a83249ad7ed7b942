package models

import "time"

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"column:user_id" json:"user_id"`
	Email     string    `gorm:"column:email" json:"email"`
	Action    string    `gorm:"column:action;not null" json:"action"`
	IPAddress string    `gorm:"column:ip_address" json:"ip_address"`
	Status    string    `gorm:"column:status" json:"status"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
