package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tkaykim/totalmanagement-sub001/internal/model"
	pkgerrors "github.com/tkaykim/totalmanagement-sub001/pkg/errors"
)

// AttendanceRepository 考勤记录数据访问接口
type AttendanceRepository interface {
	// Create 新建记录；已有未签退记录时返回 gorm.ErrDuplicatedKey（由部分唯一索引保证）
	Create(ctx context.Context, log *model.AttendanceLog) error
	GetByID(ctx context.Context, id string) (*model.AttendanceLog, error)
	GetOpenByUser(ctx context.Context, userID string) (*model.AttendanceLog, error)
	// GetLatestByUserAndDate 指定工作日最近一条记录（按签到时间倒序）
	GetLatestByUserAndDate(ctx context.Context, userID string, workDate time.Time) (*model.AttendanceLog, error)
	ListPendingConfirmation(ctx context.Context, userID string) ([]model.AttendanceLog, error)
	ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceLog, error)
	// ListByRange 导出用，预加载 User
	ListByRange(ctx context.Context, from, to time.Time) ([]model.AttendanceLog, error)
	ListOpen(ctx context.Context) ([]model.AttendanceLog, error)
	// MarkOvernight 将 work_date 早于 before 且未签退的记录标记为跨夜，返回受影响行数
	MarkOvernight(ctx context.Context, before time.Time) (int64, error)
	// Update 带乐观锁更新，版本冲突返回 ErrOptimisticLock
	Update(ctx context.Context, log *model.AttendanceLog) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, log *model.AttendanceLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.AttendanceLog, error) {
	var log model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("log_id = ?", id).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *attendanceRepo) GetOpenByUser(ctx context.Context, userID string) (*model.AttendanceLog, error) {
	var log model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND check_out_at IS NULL", userID).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *attendanceRepo) GetLatestByUserAndDate(ctx context.Context, userID string, workDate time.Time) (*model.AttendanceLog, error) {
	var log model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date = ?", userID, workDate.Format("2006-01-02")).
		Order("check_in_at DESC").
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *attendanceRepo) ListPendingConfirmation(ctx context.Context, userID string) ([]model.AttendanceLog, error) {
	var logs []model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND auto_closed = ? AND user_confirmed = ? AND check_out_at IS NOT NULL", userID, true, false).
		Order("work_date ASC, check_in_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *attendanceRepo) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceLog, error) {
	var logs []model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date BETWEEN ? AND ?", userID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("work_date ASC, check_in_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *attendanceRepo) ListByRange(ctx context.Context, from, to time.Time) ([]model.AttendanceLog, error) {
	var logs []model.AttendanceLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("work_date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("user_id ASC, work_date ASC, check_in_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *attendanceRepo) ListOpen(ctx context.Context) ([]model.AttendanceLog, error) {
	var logs []model.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("check_out_at IS NULL").
		Order("check_in_at ASC").
		Find(&logs).Error
	return logs, err
}

func (r *attendanceRepo) MarkOvernight(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceLog{}).
		Where("check_out_at IS NULL AND is_overnight = ? AND work_date < ?", false, before.Format("2006-01-02")).
		Updates(map[string]interface{}{
			"is_overnight": true,
			"version":      gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

func (r *attendanceRepo) Update(ctx context.Context, log *model.AttendanceLog) error {
	oldVersion := log.Version
	result := r.db.WithContext(ctx).
		Model(log).
		Where("log_id = ? AND version = ?", log.LogID, oldVersion).
		Updates(map[string]interface{}{
			"check_in_at":    log.CheckInAt,
			"check_out_at":   log.CheckOutAt,
			"is_overnight":   log.IsOvernight,
			"auto_closed":    log.AutoClosed,
			"user_confirmed": log.UserConfirmed,
			"corrected_at":   log.CorrectedAt,
			"updated_by":     log.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	log.Version = oldVersion + 1
	return nil
}
