package service

import (
	"context"
	"time"

	"Homeroom/internal/api/dto"
	"Homeroom/internal/pkg/consts"
	"Homeroom/internal/pkg/redis"
	"Homeroom/internal/pkg/security"
	"Homeroom/internal/repository"

	"github.com/jinzhu/copier"
)

// UserService 用户服务接口定义
type UserService interface {
	Login(ctx context.Context, cred *dto.CredentialDTO) (*dto.LoginResultDTO, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, id string) (*dto.UserInfoDTO, error)
	GetUserSimpleInfoByIDs(ctx context.Context, ids []string) ([]*dto.UserInfoDTO, error)
}

type userServiceImpl struct {
	userRepo repository.UserRepo
}

// NewUserService 构造函数
func NewUserService(userRepo repository.UserRepo) UserService {
	return &userServiceImpl{userRepo: userRepo}
}

func (s *userServiceImpl) Login(ctx context.Context, cred *dto.CredentialDTO) (*dto.LoginResultDTO, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, cred.Username)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if user.IsBan {
		return nil, ErrUserBan
	}
	if user.Password == nil {
		return nil, ErrPasswordIncorrect
	}
	if err := security.CheckPasswordHash(cred.Password, *user.Password); err != nil {
		return nil, ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResultDTO{
		Token:  token,
		UserID: user.ID,
		Name:   user.DisplayName(),
		Role:   user.Role,
	}, nil
}

// Logout 吊销令牌：签名进 redis 黑名单，有效期覆盖令牌剩余寿命
func (s *userServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.TokenRevokedKey+signature, true, time.Hour*24)
}

func (s *userServiceImpl) GetUserInfo(ctx context.Context, id string) (*dto.UserInfoDTO, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	info := &dto.UserInfoDTO{}
	if err := copier.Copy(info, user); err != nil {
		return nil, err
	}
	info.UserID = user.ID
	info.Name = user.DisplayName()
	return info, nil
}

func (s *userServiceImpl) GetUserSimpleInfoByIDs(ctx context.Context, ids []string) ([]*dto.UserInfoDTO, error) {
	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	infos := make([]*dto.UserInfoDTO, 0, len(users))
	for _, u := range users {
		infos = append(infos, &dto.UserInfoDTO{
			UserID: u.ID,
			Name:   u.DisplayName(),
			Role:   u.Role,
		})
	}
	return infos, nil
}
