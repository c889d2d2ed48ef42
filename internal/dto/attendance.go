package dto

import "time"

// ── 考勤模块 DTO ──

// AttendanceStatusResponse 考勤开闭状态（对账输入）
// 字段名沿用前端约定的驼峰形式
type AttendanceStatusResponse struct {
	IsCheckedIn     bool `json:"isCheckedIn"`
	IsCheckedOut    bool `json:"isCheckedOut"`
	HasCheckedOut   bool `json:"hasCheckedOut"`
	IsOvernightWork bool `json:"isOvernightWork"`
}

// RealtimeStatusResponse 实时状态；无记录时 status 为 null
type RealtimeStatusResponse struct {
	Status    *string    `json:"status"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SetRealtimeStatusRequest 写入实时状态
type SetRealtimeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=OFF_WORK WORKING MEETING OUTSIDE BREAK OVERTIME"`
}

// AttendanceLogResponse 考勤记录
type AttendanceLogResponse struct {
	ID            string     `json:"id"`
	WorkDate      string     `json:"work_date"` // YYYY-MM-DD
	CheckInAt     time.Time  `json:"check_in_at"`
	CheckOutAt    *time.Time `json:"check_out_at"`
	IsOvernight   bool       `json:"is_overnight"`
	IsOvertime    bool       `json:"is_overtime"`
	AutoClosed    bool       `json:"auto_closed"`
	UserConfirmed bool       `json:"user_confirmed"`
	CorrectedAt   *time.Time `json:"corrected_at,omitempty"`
}

// CheckInWarning 签到时附带的提醒
type CheckInWarning struct {
	Type string                  `json:"type"` // auto_checkout_history
	Logs []AttendanceLogResponse `json:"logs"`
}

// WarningTypeAutoCheckoutHistory 存在未处理的自动签退记录
const WarningTypeAutoCheckoutHistory = "auto_checkout_history"

// CheckInResponse 签到响应
type CheckInResponse struct {
	Log     AttendanceLogResponse `json:"log"`
	Warning *CheckInWarning       `json:"_warning,omitempty"`
}

// CorrectCheckoutRequest 处理自动签退记录
// 仅支持 skip_correction=true（按原时间确认）；时间更正须走 work-requests 审批
type CorrectCheckoutRequest struct {
	SkipCorrection bool `json:"skip_correction"`
}

// AttendanceLogListRequest 考勤历史查询
type AttendanceLogListRequest struct {
	From string `form:"from" binding:"required,ymd"` // YYYY-MM-DD
	To   string `form:"to"   binding:"required,ymd"`
}
