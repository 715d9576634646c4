package repository

import (
	"Homeroom/internal/model"
	"context"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &userRepoImpl{db: db}
}

// GetUserByID 根据 ID 获取用户
func (s *userRepoImpl) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_delete = 0", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *userRepoImpl) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_delete = 0", username).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs 批量获取用户
func (s *userRepoImpl) GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	var users []*model.User
	err := s.db.WithContext(ctx).
		Where("id IN ? AND is_delete = 0", ids).
		Find(&users).Error
	return users, err
}

// CreateUser 创建用户
func (s *userRepoImpl) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}
