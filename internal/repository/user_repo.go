package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tkaykim/totalmanagement-sub001/internal/model"
)

// UserRepository 用户只读访问；账号由管理员直接写入数据库开通
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmployeeNo(ctx context.Context, employeeNo string) (*model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmployeeNo(ctx context.Context, employeeNo string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("employee_no = ?", employeeNo).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
