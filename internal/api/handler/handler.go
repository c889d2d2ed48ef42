package handler

import "github.com/tkaykim/totalmanagement-sub001/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Attendance  *AttendanceHandler
	WorkRequest *WorkRequestHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Attendance:  NewAttendanceHandler(svc.Attendance, svc.RealtimeStatus),
		WorkRequest: NewWorkRequestHandler(svc.WorkRequest),
		Export:      NewExportHandler(svc.Export),
	}
}
