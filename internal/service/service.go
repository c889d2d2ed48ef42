package service

import (
	"go.uber.org/zap"

	"github.com/tkaykim/totalmanagement-sub001/config"
	"github.com/tkaykim/totalmanagement-sub001/internal/repository"
	"github.com/tkaykim/totalmanagement-sub001/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth           AuthService
	Attendance     AttendanceService
	RealtimeStatus RealtimeStatusService
	WorkRequest    WorkRequestService
	Export         ExportService
}

// NewService 创建 Service 聚合；blacklist 为 nil 时登出仅记录日志
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:           NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Attendance:     NewAttendanceService(&cfg.Attendance, repo, logger),
		RealtimeStatus: NewRealtimeStatusService(repo, logger),
		WorkRequest:    NewWorkRequestService(&cfg.Attendance, repo, logger),
		Export:         NewExportService(&cfg.Attendance, repo, logger),
	}
}
