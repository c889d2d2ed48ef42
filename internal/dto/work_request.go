package dto

// ── 工作申请模块 DTO ──

// CreateWorkRequestRequest 创建申请（考勤更正）
type CreateWorkRequestRequest struct {
	RequestType string `json:"request_type" binding:"required,oneof=attendance_correction"`
	StartDate   string `json:"start_date"   binding:"required,ymd"` // "2026-10-14"
	EndDate     string `json:"end_date"     binding:"required,ymd"`
	StartTime   string `json:"start_time"   binding:"required,hhmm"` // "09:00"
	EndTime     string `json:"end_time"     binding:"required,hhmm"` // "18:30"
	Reason      string `json:"reason"       binding:"required,max=500"`
}

// WorkRequestListRequest 申请列表查询（管理员）
type WorkRequestListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	PaginationRequest
}

// RejectWorkRequestRequest 驳回申请
type RejectWorkRequestRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// WorkRequestResponse 申请信息
type WorkRequestResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name,omitempty"`
	RequestType  string  `json:"request_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	RejectReason string  `json:"reject_reason,omitempty"`
	CreatedAt    string  `json:"created_at"`
}
