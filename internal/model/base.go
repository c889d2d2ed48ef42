package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 审计字段；*By 为空表示由系统（自动签退巡检）写入
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// CreatedByUser 记录创建人
func (m *BaseModel) CreatedByUser(userID string) {
	m.CreatedBy = &userID
}

// UpdatedByUser 记录最后修改人
func (m *BaseModel) UpdatedByUser(userID string) {
	m.UpdatedBy = &userID
}

// SoftDeleteModel 考勤与申请记录只做软删除，保留审计轨迹
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 带乐观锁版本号；更新时以 version 作条件，不匹配即冲突
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
