package model

import "time"

// AttendanceLog 考勤记录表，对应 attendance_logs（一次签到/签退为一条）
type AttendanceLog struct {
	LogID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	WorkDate      time.Time  `gorm:"type:date;not null"                             json:"work_date"`
	CheckInAt     time.Time  `gorm:"not null"                                       json:"check_in_at"`
	CheckOutAt    *time.Time `json:"check_out_at,omitempty"`                                          // 未签退时为 NULL
	IsOvernight   bool       `gorm:"not null;default:false"                         json:"is_overnight"`   // 跨过当地午夜仍未签退
	IsOvertime    bool       `gorm:"not null;default:false"                         json:"is_overtime"`    // 经加班签到开启
	AutoClosed    bool       `gorm:"not null;default:false"                         json:"auto_closed"`    // 签退时间由系统写入
	UserConfirmed bool       `gorm:"not null;default:false"                         json:"user_confirmed"` // 用户已处理自动签退
	CorrectedAt   *time.Time `json:"corrected_at,omitempty"`                                          // 审批通过的更正已生效
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (AttendanceLog) TableName() string { return "attendance_logs" }

// IsOpen 是否未签退
func (l *AttendanceLog) IsOpen() bool { return l.CheckOutAt == nil }

// PendingConfirmation 是否仍在自动签退待处理队列中
func (l *AttendanceLog) PendingConfirmation() bool {
	return l.AutoClosed && !l.UserConfirmed && l.CheckOutAt != nil
}
