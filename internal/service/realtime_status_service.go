package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tkaykim/totalmanagement-sub001/internal/dto"
	"github.com/tkaykim/totalmanagement-sub001/internal/repository"
	"github.com/tkaykim/totalmanagement-sub001/internal/worksession"
)

// RealtimeStatusService 实时状态业务接口（每用户一个值，不保留历史）
type RealtimeStatusService interface {
	// Get 从未写入过时 Status 为 nil
	Get(ctx context.Context, userID string) (*dto.RealtimeStatusResponse, error)
	Set(ctx context.Context, userID string, req *dto.SetRealtimeStatusRequest) (*dto.RealtimeStatusResponse, error)
}

type realtimeStatusService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRealtimeStatusService 创建 RealtimeStatusService 实例
func NewRealtimeStatusService(repo *repository.Repository, logger *zap.Logger) RealtimeStatusService {
	return &realtimeStatusService{repo: repo, logger: logger}
}

func (s *realtimeStatusService) Get(ctx context.Context, userID string) (*dto.RealtimeStatusResponse, error) {
	rs, err := s.repo.RealtimeStatus.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.RealtimeStatusResponse{}, nil
		}
		s.logger.Error("查询实时状态失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.RealtimeStatusResponse{Status: &rs.Status}
	// 缓存命中时无更新时间
	if !rs.UpdatedAt.IsZero() {
		resp.UpdatedAt = &rs.UpdatedAt
	}
	return resp, nil
}

func (s *realtimeStatusService) Set(ctx context.Context, userID string, req *dto.SetRealtimeStatusRequest) (*dto.RealtimeStatusResponse, error) {
	status, err := worksession.ParseWorkStatus(req.Status)
	if err != nil || status == "" {
		return nil, worksession.ErrInvalidStatus
	}

	if err := s.repo.RealtimeStatus.Upsert(ctx, userID, string(status)); err != nil {
		s.logger.Error("写入实时状态失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	value := string(status)
	now := time.Now()
	return &dto.RealtimeStatusResponse{Status: &value, UpdatedAt: &now}, nil
}
