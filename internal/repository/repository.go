package repository

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User           UserRepository
	Attendance     AttendanceRepository
	RealtimeStatus RealtimeStatusRepository
	WorkRequest    WorkRequestRepository
}

// NewRepository 创建 Repository 聚合；cache 为 nil 时实时状态直接读写数据库
func NewRepository(db *gorm.DB, cache StatusCache, logger *zap.Logger) *Repository {
	realtime := NewRealtimeStatusRepo(db)
	if cache != nil {
		realtime = NewCachedRealtimeStatusRepo(realtime, cache, logger)
	}
	return &Repository{
		User:           NewUserRepo(db),
		Attendance:     NewAttendanceRepo(db),
		RealtimeStatus: realtime,
		WorkRequest:    NewWorkRequestRepo(db),
	}
}
