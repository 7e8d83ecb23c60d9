package user

import (
	"context"
	"errors"

	"go-approvals/internal/common/apperrors"
	"go-approvals/internal/common/models"
)

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, id string, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type UserServiceImpl struct {
	Repo UserRepository
}

func NewUserService(repo UserRepository) UserService {
	return &UserServiceImpl{Repo: repo}
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, user *models.User) error {
	if user.Username == "" {
		return errors.New("username is required")
	}
	if user.Status == "" {
		user.Status = "active"
	}
	return s.Repo.Create(ctx, user)
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &apperrors.NotFoundError{Resource: "user", ID: id}
	}
	return user, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, id string, user *models.User) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &apperrors.NotFoundError{Resource: "user", ID: id}
	}
	return s.Repo.Update(ctx, id, user)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
