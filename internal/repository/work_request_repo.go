package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tkaykim/totalmanagement-sub001/internal/model"
	pkgerrors "github.com/tkaykim/totalmanagement-sub001/pkg/errors"
)

// WorkRequestRepository 工作申请数据访问接口
type WorkRequestRepository interface {
	Create(ctx context.Context, req *model.WorkRequest) error
	GetByID(ctx context.Context, id string) (*model.WorkRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.WorkRequest, error)
	// List 管理员视图；status 为空表示全部
	List(ctx context.Context, status string, offset, limit int) ([]model.WorkRequest, int64, error)
	// Update 带乐观锁更新审批字段
	Update(ctx context.Context, req *model.WorkRequest) error
}

type workRequestRepo struct {
	db *gorm.DB
}

// NewWorkRequestRepo 创建 WorkRequestRepository 实例
func NewWorkRequestRepo(db *gorm.DB) WorkRequestRepository {
	return &workRequestRepo{db: db}
}

func (r *workRequestRepo) Create(ctx context.Context, req *model.WorkRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *workRequestRepo) GetByID(ctx context.Context, id string) (*model.WorkRequest, error) {
	var req model.WorkRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *workRequestRepo) ListByUser(ctx context.Context, userID string) ([]model.WorkRequest, error) {
	var reqs []model.WorkRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *workRequestRepo) List(ctx context.Context, status string, offset, limit int) ([]model.WorkRequest, int64, error) {
	var reqs []model.WorkRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.WorkRequest{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *workRequestRepo) Update(ctx context.Context, req *model.WorkRequest) error {
	oldVersion := req.Version
	result := r.db.WithContext(ctx).
		Model(req).
		Where("request_id = ? AND version = ?", req.RequestID, oldVersion).
		Updates(map[string]interface{}{
			"status":        req.Status,
			"approved_at":   req.ApprovedAt,
			"approved_by":   req.ApprovedBy,
			"reject_reason": req.RejectReason,
			"updated_by":    req.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	return nil
}
