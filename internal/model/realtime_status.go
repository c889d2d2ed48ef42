package model

import "time"

// RealtimeStatus 实时状态表，对应 realtime_statuses（每用户一行，无历史）
type RealtimeStatus struct {
	UserID    string    `gorm:"type:uuid;primaryKey"         json:"user_id"`
	Status    string    `gorm:"type:varchar(20);not null"    json:"status"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"      json:"updated_at"`
}

// TableName 指定表名
func (RealtimeStatus) TableName() string { return "realtime_statuses" }
