package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/transfer"
	"github.com/postloom/postloom/pkg/utils"
)

type AuthService interface {
	Register(ctx context.Context, req *transfer.RegisterRequest) (int64, error)
	Login(ctx context.Context, req *transfer.LoginRequest) (int64, error)
}

type authService struct {
	u repository.UserRepository
}

func NewAuthService(u repository.UserRepository) AuthService {
	return &authService{
		u: u,
	}
}

func (s *authService) Register(ctx context.Context, req *transfer.RegisterRequest) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		err := fmt.Errorf("%w: email and password are required", ErrValidation)
		slog.Info(err.Error())
		return 0, err
	}
	if len(req.Password) < 8 {
		err := fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		slog.Info(err.Error())
		return 0, err
	}

	_, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if exists {
		err = fmt.Errorf("%w: email already registered", ErrValidation)
		slog.Info(err.Error())
		return 0, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return 0, fmt.Errorf("Error hashing password")
	}

	userID, err := s.u.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         req.Name,
		Company:      req.Company,
	})
	if err != nil {
		return 0, fmt.Errorf("Error creating user")
	}

	return userID, nil
}

func (s *authService) Login(ctx context.Context, req *transfer.LoginRequest) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, exists, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if !exists || !utils.CheckPassword(user.PasswordHash, req.Password) {
		err = fmt.Errorf("%w: invalid email or password", ErrValidation)
		slog.Info(err.Error())
		return 0, err
	}

	return user.ID, nil
}
