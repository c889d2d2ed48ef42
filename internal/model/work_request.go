package model

import "time"

// 申请类型
const (
	WorkRequestTypeAttendanceCorrection = "attendance_correction"
)

// 申请状态
const (
	WorkRequestStatusPending  = "pending"
	WorkRequestStatusApproved = "approved"
	WorkRequestStatusRejected = "rejected"
)

// WorkRequest 工作申请表，对应 work_requests（当前仅考勤更正）
type WorkRequest struct {
	RequestID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	RequestType  string     `gorm:"type:varchar(40);not null"                      json:"request_type"`
	StartDate    time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	StartTime    string     `gorm:"type:varchar(5)"                                json:"start_time,omitempty"` // HH:MM
	EndTime      string     `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`   // HH:MM
	Reason       string     `gorm:"type:varchar(500);not null"                     json:"reason"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	ApprovedBy   *string    `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	RejectReason string     `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (WorkRequest) TableName() string { return "work_requests" }
