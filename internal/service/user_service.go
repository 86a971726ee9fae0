package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/transfer"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, update *transfer.ProfileUpdate) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
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
		return nil, fmt.Errorf("Error getting user info")
	}

	if !isExist {
		err = errors.New("User not found")
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: user doesn't exist", ErrNotFound)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, update *transfer.ProfileUpdate) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Error getting user info")
	}
	if !isExist {
		return nil, fmt.Errorf("%w: user doesn't exist", ErrNotFound)
	}

	if update.Name != "" {
		user.Name = update.Name
	}
	if update.Company != "" {
		user.Company = update.Company
	}
	if update.WebsiteURL != "" {
		user.WebsiteURL = update.WebsiteURL
	}

	if err := s.u.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("Error updating profile")
	}

	return user, nil
}

func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	err := s.u.Remove(ctx, userID)
	if err != nil {
		return err
	}
	return nil
}
