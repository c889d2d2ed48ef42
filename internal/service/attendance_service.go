package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tkaykim/totalmanagement-sub001/config"
	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/model"
	"github.com/tkaykim/totalmanagement-sub001/internal/repository"
	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
	pkgerrors "github.com/tkaykim/totalmanagement-sub001/pkg/errors"
)

// ── 考勤模块业务错误 ──
// 重复签到/签退的错误文案是客户端判定"重复提交"的依据，保持英文原样

var (
	ErrAlreadyCheckedIn          = errors.New("already checked in")
	ErrAlreadyCheckedOut         = errors.New("already checked out")
	ErrLogNotFound               = errors.New("考勤记录不存在")
	ErrLogNotAutoClosed          = errors.New("该记录不是系统自动签退记录")
	ErrCorrectionRequiresRequest = errors.New("修改签退时间请提交考勤更正申请")
	ErrInvalidDateRange          = errors.New("日期范围无效")
)

// maxHistoryDays 历史查询允许的最大跨度
const maxHistoryDays = 366

const dateLayout = "2006-01-02"

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// Status 当前开闭状态，供客户端对账
	Status(ctx context.Context, userID string) (*dto.AttendanceStatusResponse, error)
	// CheckIn 签到；已有未签退记录时返回 ErrAlreadyCheckedIn，存在待确认的自动签退记录时附带提醒
	CheckIn(ctx context.Context, userID string) (*dto.CheckInResponse, error)
	// CheckOut 签退；无未签退记录时返回 ErrAlreadyCheckedOut
	CheckOut(ctx context.Context, userID string) (*dto.AttendanceLogResponse, error)
	// OvertimeCheckIn 加班签到：今日已签退也可再开一条记录
	OvertimeCheckIn(ctx context.Context, userID string) (*dto.AttendanceLogResponse, error)
	PendingAutoCheckouts(ctx context.Context, userID string) ([]dto.AttendanceLogResponse, error)
	// CorrectCheckout 按原时间确认自动签退记录，重复确认幂等
	CorrectCheckout(ctx context.Context, userID, logID string, req *dto.CorrectCheckoutRequest) (*dto.AttendanceLogResponse, error)
	History(ctx context.Context, userID string, req *dto.AttendanceLogListRequest) ([]dto.AttendanceLogResponse, error)
	// SweepStale 巡检：标记跨夜、关闭超时未签退记录
	SweepStale(ctx context.Context) (*SweepResult, error)
}

// SweepResult 一次巡检的处理结果
type SweepResult struct {
	MarkedOvernight int64
	AutoClosed      int
}

type attendanceService struct {
	repo    *repository.Repository
	logger  *zap.Logger
	loc     *time.Location
	maxOpen time.Duration
	now     func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.AttendanceConfig, repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{
		repo:    repo,
		logger:  logger,
		loc:     cfg.Location(),
		maxOpen: time.Duration(cfg.MaxOpenHours) * time.Hour,
		now:     time.Now,
	}
}

// ────────────────────── Status ──────────────────────

func (s *attendanceService) Status(ctx context.Context, userID string) (*dto.AttendanceStatusResponse, error) {
	now := s.now()
	today := workDateOf(now, s.loc)

	open, err := s.repo.Attendance.GetOpenByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未签退记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if open != nil {
		return &dto.AttendanceStatusResponse{
			IsCheckedIn:     true,
			IsOvernightWork: open.IsOvernight || !sameDate(open.WorkDate, today),
		}, nil
	}

	latest, err := s.repo.Attendance.GetLatestByUserAndDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.AttendanceStatusResponse{}, nil
		}
		s.logger.Error("查询今日考勤失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &dto.AttendanceStatusResponse{
		IsCheckedIn:     true,
		IsCheckedOut:    true,
		HasCheckedOut:   true,
		IsOvernightWork: latest.IsOvernight,
	}, nil
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, userID string) (*dto.CheckInResponse, error) {
	log, err := s.openLog(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	resp := &dto.CheckInResponse{Log: toAttendanceLogResponse(log)}

	// 提醒查询失败不影响签到本身
	pending, err := s.repo.Attendance.ListPendingConfirmation(ctx, userID)
	if err != nil {
		s.logger.Warn("查询待确认自动签退记录失败", zap.String("user_id", userID), zap.Error(err))
		return resp, nil
	}
	if len(pending) > 0 {
		resp.Warning = &dto.CheckInWarning{
			Type: dto.WarningTypeAutoCheckoutHistory,
			Logs: toAttendanceLogResponses(pending),
		}
	}
	return resp, nil
}

func (s *attendanceService) OvertimeCheckIn(ctx context.Context, userID string) (*dto.AttendanceLogResponse, error) {
	log, err := s.openLog(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	resp := toAttendanceLogResponse(log)
	return &resp, nil
}

// openLog 新建一条未签退记录；并发重复签到由部分唯一索引兜底
func (s *attendanceService) openLog(ctx context.Context, userID string, overtime bool) (*model.AttendanceLog, error) {
	if _, err := s.repo.Attendance.GetOpenByUser(ctx, userID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未签退记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	log := &model.AttendanceLog{
		UserID:     userID,
		WorkDate:   workDateOf(now, s.loc),
		CheckInAt:  now,
		IsOvertime: overtime,
	}
	if err := s.repo.Attendance.Create(ctx, log); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCheckedIn
		}
		s.logger.Error("创建考勤记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("签到",
		zap.String("user_id", userID),
		zap.String("log_id", log.LogID),
		zap.Bool("overtime", overtime),
	)
	return log, nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, userID string) (*dto.AttendanceLogResponse, error) {
	open, err := s.repo.Attendance.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlreadyCheckedOut
		}
		s.logger.Error("查询未签退记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	open.CheckOutAt = &now
	if !sameDate(open.WorkDate, workDateOf(now, s.loc)) {
		open.IsOvernight = true
	}
	open.UpdatedByUser(userID)

	if err := s.repo.Attendance.Update(ctx, open); err != nil {
		// 版本冲突通常是巡检刚刚自动签退了这条记录
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrAlreadyCheckedOut
		}
		s.logger.Error("签退失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("签退", zap.String("user_id", userID), zap.String("log_id", open.LogID))
	resp := toAttendanceLogResponse(open)
	return &resp, nil
}

// ────────────────────── 自动签退处理 ──────────────────────

func (s *attendanceService) PendingAutoCheckouts(ctx context.Context, userID string) ([]dto.AttendanceLogResponse, error) {
	logs, err := s.repo.Attendance.ListPendingConfirmation(ctx, userID)
	if err != nil {
		s.logger.Error("查询待确认自动签退记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toAttendanceLogResponses(logs), nil
}

func (s *attendanceService) CorrectCheckout(ctx context.Context, userID, logID string, req *dto.CorrectCheckoutRequest) (*dto.AttendanceLogResponse, error) {
	if !req.SkipCorrection {
		return nil, ErrCorrectionRequiresRequest
	}

	log, err := s.repo.Attendance.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLogNotFound
		}
		s.logger.Error("查询考勤记录失败", zap.String("log_id", logID), zap.Error(err))
		return nil, err
	}
	// 他人记录按不存在处理
	if log.UserID != userID {
		return nil, ErrLogNotFound
	}
	if !log.AutoClosed || log.CheckOutAt == nil {
		return nil, ErrLogNotAutoClosed
	}

	if !log.UserConfirmed {
		log.UserConfirmed = true
		log.UpdatedByUser(userID)
		if err := s.repo.Attendance.Update(ctx, log); err != nil {
			s.logger.Error("确认自动签退记录失败", zap.String("log_id", logID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("确认自动签退记录", zap.String("user_id", userID), zap.String("log_id", logID))
	}

	resp := toAttendanceLogResponse(log)
	return &resp, nil
}

// ────────────────────── History ──────────────────────

func (s *attendanceService) History(ctx context.Context, userID string, req *dto.AttendanceLogListRequest) ([]dto.AttendanceLogResponse, error) {
	from, to, err := parseDateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.Attendance.ListByUserAndRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询考勤历史失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toAttendanceLogResponses(logs), nil
}

// ────────────────────── SweepStale ──────────────────────

func (s *attendanceService) SweepStale(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	today := workDateOf(now, s.loc)
	result := &SweepResult{}

	// 1. 跨过午夜仍未签退的记录标记为跨夜
	marked, err := s.repo.Attendance.MarkOvernight(ctx, today)
	if err != nil {
		s.logger.Error("标记跨夜记录失败", zap.Error(err))
		return nil, err
	}
	result.MarkedOvernight = marked

	// 2. 超时记录自动签退
	open, err := s.repo.Attendance.ListOpen(ctx)
	if err != nil {
		s.logger.Error("查询未签退记录失败", zap.Error(err))
		return nil, err
	}

	for i := range open {
		log := &open[i]
		if now.Sub(log.CheckInAt) < s.maxOpen {
			continue
		}

		checkOut := now
		log.CheckOutAt = &checkOut
		log.AutoClosed = true
		log.UserConfirmed = false
		if !sameDate(log.WorkDate, today) {
			log.IsOvernight = true
		}

		if err := s.repo.Attendance.Update(ctx, log); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				// 用户恰好在此期间签退
				s.logger.Info("自动签退跳过：记录已被更新", zap.String("log_id", log.LogID))
				continue
			}
			s.logger.Error("自动签退失败", zap.String("log_id", log.LogID), zap.Error(err))
			continue
		}
		result.AutoClosed++

		if err := s.repo.RealtimeStatus.Upsert(ctx, log.UserID, string(worksession.StatusOffWork)); err != nil {
			s.logger.Warn("自动签退后重置实时状态失败", zap.String("user_id", log.UserID), zap.Error(err))
		}

		s.logger.Info("自动签退",
			zap.String("user_id", log.UserID),
			zap.String("log_id", log.LogID),
			zap.Time("check_in_at", log.CheckInAt),
		)
	}

	return result, nil
}

// ── 辅助函数 ──

// workDateOf 取 t 在考勤时区下的日期，按 UTC 零点存储以匹配 DATE 列
func workDateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	return a.Format(dateLayout) == b.Format(dateLayout)
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	to, err := time.Parse(dateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	if to.Before(from) || to.Sub(from) > maxHistoryDays*24*time.Hour {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

func toAttendanceLogResponse(l *model.AttendanceLog) dto.AttendanceLogResponse {
	return dto.AttendanceLogResponse{
		ID:            l.LogID,
		WorkDate:      l.WorkDate.Format(dateLayout),
		CheckInAt:     l.CheckInAt,
		CheckOutAt:    l.CheckOutAt,
		IsOvernight:   l.IsOvernight,
		IsOvertime:    l.IsOvertime,
		AutoClosed:    l.AutoClosed,
		UserConfirmed: l.UserConfirmed,
		CorrectedAt:   l.CorrectedAt,
	}
}

func toAttendanceLogResponses(logs []model.AttendanceLog) []dto.AttendanceLogResponse {
	out := make([]dto.AttendanceLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toAttendanceLogResponse(&logs[i]))
	}
	return out
}
