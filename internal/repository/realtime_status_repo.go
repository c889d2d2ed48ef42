package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tkaykim/totalmanagement-sub001/internal/model"
)

// RealtimeStatusRepository 实时状态数据访问接口（每用户一行）
type RealtimeStatusRepository interface {
	// Get 无记录时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context, userID string) (*model.RealtimeStatus, error)
	Upsert(ctx context.Context, userID, status string) error
}

type realtimeStatusRepo struct {
	db *gorm.DB
}

// NewRealtimeStatusRepo 创建 RealtimeStatusRepository 实例
func NewRealtimeStatusRepo(db *gorm.DB) RealtimeStatusRepository {
	return &realtimeStatusRepo{db: db}
}

func (r *realtimeStatusRepo) Get(ctx context.Context, userID string) (*model.RealtimeStatus, error) {
	var rs model.RealtimeStatus
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&rs).Error
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

func (r *realtimeStatusRepo) Upsert(ctx context.Context, userID, status string) error {
	rs := model.RealtimeStatus{UserID: userID, Status: status, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&rs).Error
}

// ── Redis 缓存装饰 ──

// StatusCache 实时状态缓存，由 pkg/redis.Client 实现
type StatusCache interface {
	GetRealtimeStatus(ctx context.Context, userID string) (string, bool, error)
	SetRealtimeStatus(ctx context.Context, userID, status string) error
	DeleteRealtimeStatus(ctx context.Context, userID string) error
}

type cachedRealtimeStatusRepo struct {
	inner  RealtimeStatusRepository
	cache  StatusCache
	logger *zap.Logger
}

// NewCachedRealtimeStatusRepo 在数据库实现外包一层缓存。
// 缓存故障只记日志，读写均回落到数据库。
func NewCachedRealtimeStatusRepo(inner RealtimeStatusRepository, cache StatusCache, logger *zap.Logger) RealtimeStatusRepository {
	return &cachedRealtimeStatusRepo{inner: inner, cache: cache, logger: logger}
}

func (r *cachedRealtimeStatusRepo) Get(ctx context.Context, userID string) (*model.RealtimeStatus, error) {
	status, ok, err := r.cache.GetRealtimeStatus(ctx, userID)
	if err != nil {
		r.logger.Warn("读取实时状态缓存失败", zap.String("user_id", userID), zap.Error(err))
	} else if ok {
		return &model.RealtimeStatus{UserID: userID, Status: status}, nil
	}

	rs, err := r.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetRealtimeStatus(ctx, userID, rs.Status); err != nil {
		r.logger.Warn("回填实时状态缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
	return rs, nil
}

func (r *cachedRealtimeStatusRepo) Upsert(ctx context.Context, userID, status string) error {
	if err := r.inner.Upsert(ctx, userID, status); err != nil {
		// 数据库写失败时缓存可能已过期，直接失效
		if cerr := r.cache.DeleteRealtimeStatus(ctx, userID); cerr != nil {
			r.logger.Warn("失效实时状态缓存失败", zap.String("user_id", userID), zap.Error(cerr))
		}
		return err
	}
	if err := r.cache.SetRealtimeStatus(ctx, userID, status); err != nil {
		r.logger.Warn("写入实时状态缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
