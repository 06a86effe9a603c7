package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"appforge/internal/models"
	"appforge/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, account, name string) (*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByAccount(ctx context.Context, account string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, account, name string) (*models.User, error) {
	if strings.TrimSpace(account) == "" {
		return nil, errors.New("account is required")
	}
	if name == "" {
		name = account
	}
	u := &models.User{
		Account: account,
		Name:    name,
		Role:    "user",
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) GetByAccount(ctx context.Context, account string) (*models.User, error) {
	return s.users.FindByAccount(ctx, account)
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}
