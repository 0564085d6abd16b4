package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	GetOrCreateByEmail(ctx context.Context, email, name string) (int64, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info")
	}

	if !isExist {
		err = errors.New("user not found")
		slog.Info(err.Error())
		return nil, err
	}

	return user, nil
}

func (s *userService) GetOrCreateByEmail(ctx context.Context, email, name string) (int64, error) {
	user, isExist, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("fetching user by email failed: %w", err)
	}
	if isExist {
		return user.ID, nil
	}

	newUser := &models.User{
		Email: email,
		Name:  name,
	}
	userID, err := s.u.Create(ctx, nil, newUser)
	if err != nil {
		return 0, err
	}

	return userID, nil
}
