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
	pkgerrors "github.com/tkaykim/totalmanagement-sub001/pkg/errors"
)

// ── 工作申请模块业务错误 ──

var (
	ErrWorkRequestNotFound      = errors.New("申请不存在")
	ErrWorkRequestNotPending    = errors.New("申请已处理")
	ErrWorkRequestDateInvalid   = errors.New("申请日期格式应为 YYYY-MM-DD，且结束日期不早于开始日期")
	ErrWorkRequestTimeInvalid   = errors.New("申请时间格式应为 HH:MM")
	ErrCorrectionTargetNotFound = errors.New("未找到对应的考勤记录")
	ErrAlreadyCorrected         = errors.New("该考勤记录已更正过")
	ErrWorkRequestConflict      = errors.New("申请或考勤记录已被其他操作修改，请刷新后重试")
)

const timeLayout = "15:04"

// WorkRequestService 工作申请业务接口。
// 考勤更正申请审批通过后才会修改对应考勤记录的签退时间。
type WorkRequestService interface {
	Create(ctx context.Context, userID string, req *dto.CreateWorkRequestRequest) (*dto.WorkRequestResponse, error)
	ListMine(ctx context.Context, userID string) ([]dto.WorkRequestResponse, error)
	List(ctx context.Context, req *dto.WorkRequestListRequest) ([]dto.WorkRequestResponse, int64, error)
	Approve(ctx context.Context, approverID, requestID string) (*dto.WorkRequestResponse, error)
	Reject(ctx context.Context, approverID, requestID string, req *dto.RejectWorkRequestRequest) (*dto.WorkRequestResponse, error)
}

type workRequestService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewWorkRequestService 创建 WorkRequestService 实例
func NewWorkRequestService(cfg *config.AttendanceConfig, repo *repository.Repository, logger *zap.Logger) WorkRequestService {
	return &workRequestService{
		repo:   repo,
		logger: logger,
		loc:    cfg.Location(),
		now:    time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *workRequestService) Create(ctx context.Context, userID string, req *dto.CreateWorkRequestRequest) (*dto.WorkRequestResponse, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, ErrWorkRequestDateInvalid
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil || endDate.Before(startDate) {
		return nil, ErrWorkRequestDateInvalid
	}
	if _, err := time.Parse(timeLayout, req.StartTime); err != nil {
		return nil, ErrWorkRequestTimeInvalid
	}
	if _, err := time.Parse(timeLayout, req.EndTime); err != nil {
		return nil, ErrWorkRequestTimeInvalid
	}

	wr := &model.WorkRequest{
		UserID:      userID,
		RequestType: req.RequestType,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Reason:      req.Reason,
		Status:      model.WorkRequestStatusPending,
	}
	wr.CreatedByUser(userID)

	if err := s.repo.WorkRequest.Create(ctx, wr); err != nil {
		s.logger.Error("创建申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建申请",
		zap.String("user_id", userID),
		zap.String("request_id", wr.RequestID),
		zap.String("type", wr.RequestType),
	)
	resp := toWorkRequestResponse(wr)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *workRequestService) ListMine(ctx context.Context, userID string) ([]dto.WorkRequestResponse, error) {
	reqs, err := s.repo.WorkRequest.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toWorkRequestResponses(reqs), nil
}

func (s *workRequestService) List(ctx context.Context, req *dto.WorkRequestListRequest) ([]dto.WorkRequestResponse, int64, error) {
	reqs, total, err := s.repo.WorkRequest.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	return toWorkRequestResponses(reqs), total, nil
}

// ────────────────────── Approve ──────────────────────

// Approve 审批通过；考勤更正申请会把签退时间写回对应记录，
// 记录一经更正不再接受第二次更正
func (s *workRequestService) Approve(ctx context.Context, approverID, requestID string) (*dto.WorkRequestResponse, error) {
	wr, err := s.getPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if wr.RequestType == model.WorkRequestTypeAttendanceCorrection {
		if err := s.applyCorrection(ctx, approverID, wr); err != nil {
			return nil, err
		}
	}

	now := s.now()
	wr.Status = model.WorkRequestStatusApproved
	wr.ApprovedAt = &now
	wr.ApprovedBy = &approverID
	wr.UpdatedByUser(approverID)
	if err := s.repo.WorkRequest.Update(ctx, wr); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrWorkRequestConflict
		}
		s.logger.Error("更新申请状态失败", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("申请已通过", zap.String("request_id", requestID), zap.String("approver_id", approverID))
	resp := toWorkRequestResponse(wr)
	return &resp, nil
}

// applyCorrection 定位申请对应的考勤记录并写入更正后的签退时间
func (s *workRequestService) applyCorrection(ctx context.Context, approverID string, wr *model.WorkRequest) error {
	logs, err := s.repo.Attendance.ListByUserAndRange(ctx, wr.UserID, wr.StartDate, wr.StartDate)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("request_id", wr.RequestID), zap.Error(err))
		return err
	}
	target := s.matchCorrectionTarget(logs, wr.StartTime)
	if target == nil {
		return ErrCorrectionTargetNotFound
	}
	if target.CorrectedAt != nil {
		return ErrAlreadyCorrected
	}

	checkOut, err := s.correctedCheckOut(wr, target.CheckInAt)
	if err != nil {
		return err
	}

	now := s.now()
	target.CheckOutAt = &checkOut
	target.CorrectedAt = &now
	target.UserConfirmed = true
	target.IsOvernight = !sameDate(workDateOf(checkOut, s.loc), target.WorkDate)
	target.UpdatedByUser(approverID)

	if err := s.repo.Attendance.Update(ctx, target); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrWorkRequestConflict
		}
		s.logger.Error("写入更正签退时间失败", zap.String("log_id", target.LogID), zap.Error(err))
		return err
	}

	s.logger.Info("考勤记录已更正",
		zap.String("log_id", target.LogID),
		zap.String("request_id", wr.RequestID),
		zap.Time("check_out_at", checkOut),
	)
	return nil
}

// matchCorrectionTarget 优先匹配签到时间一致的已签退记录，其次为当日首条自动签退记录
func (s *workRequestService) matchCorrectionTarget(logs []model.AttendanceLog, startTime string) *model.AttendanceLog {
	var fallback *model.AttendanceLog
	for i := range logs {
		l := &logs[i]
		if l.CheckOutAt == nil {
			continue
		}
		if l.CheckInAt.In(s.loc).Format(timeLayout) == startTime {
			return l
		}
		if fallback == nil && l.AutoClosed {
			fallback = l
		}
	}
	return fallback
}

// correctedCheckOut 由结束日期与时间组合签退时刻；早于签到时视为次日
func (s *workRequestService) correctedCheckOut(wr *model.WorkRequest, checkIn time.Time) (time.Time, error) {
	hm, err := time.Parse(timeLayout, wr.EndTime)
	if err != nil {
		return time.Time{}, ErrWorkRequestTimeInvalid
	}
	y, m, d := wr.EndDate.Date()
	checkOut := time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, s.loc)
	if !checkOut.After(checkIn) {
		checkOut = checkOut.AddDate(0, 0, 1)
	}
	return checkOut, nil
}

// ────────────────────── Reject ──────────────────────

func (s *workRequestService) Reject(ctx context.Context, approverID, requestID string, req *dto.RejectWorkRequestRequest) (*dto.WorkRequestResponse, error) {
	wr, err := s.getPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wr.Status = model.WorkRequestStatusRejected
	wr.ApprovedAt = &now
	wr.ApprovedBy = &approverID
	wr.RejectReason = req.Reason
	wr.UpdatedByUser(approverID)
	if err := s.repo.WorkRequest.Update(ctx, wr); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrWorkRequestConflict
		}
		s.logger.Error("更新申请状态失败", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("申请已驳回", zap.String("request_id", requestID), zap.String("approver_id", approverID))
	resp := toWorkRequestResponse(wr)
	return &resp, nil
}

// ── 辅助函数 ──

func (s *workRequestService) getPending(ctx context.Context, requestID string) (*model.WorkRequest, error) {
	wr, err := s.repo.WorkRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkRequestNotFound
		}
		s.logger.Error("查询申请失败", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}
	if wr.Status != model.WorkRequestStatusPending {
		return nil, ErrWorkRequestNotPending
	}
	return wr, nil
}

func toWorkRequestResponse(wr *model.WorkRequest) dto.WorkRequestResponse {
	resp := dto.WorkRequestResponse{
		ID:           wr.RequestID,
		UserID:       wr.UserID,
		RequestType:  wr.RequestType,
		StartDate:    wr.StartDate.Format(dateLayout),
		EndDate:      wr.EndDate.Format(dateLayout),
		StartTime:    wr.StartTime,
		EndTime:      wr.EndTime,
		Reason:       wr.Reason,
		Status:       wr.Status,
		ApprovedBy:   wr.ApprovedBy,
		RejectReason: wr.RejectReason,
		CreatedAt:    wr.CreatedAt.Format(time.RFC3339),
	}
	if wr.User != nil {
		resp.UserName = wr.User.Name
	}
	if wr.ApprovedAt != nil {
		t := wr.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &t
	}
	return resp
}

func toWorkRequestResponses(reqs []model.WorkRequest) []dto.WorkRequestResponse {
	out := make([]dto.WorkRequestResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, toWorkRequestResponse(&reqs[i]))
	}
	return out
}
