package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fieldops/internal/dto"
	"fieldops/internal/repositories"
	apperrors "fieldops/pkg/errors"
	"fieldops/pkg/service"
	"fieldops/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error)
	Profile(ctx context.Context, userID uint64) (*dto.ProfileDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, jwtService service.JWTService, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, jwtService: jwtService, logger: logger}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, payload.Login)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(payload.Password, user.Password) {
		s.logger.Warn("failed login attempt", zap.String("login", payload.Login))
		return nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.Uint64("userID", user.ID))
	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.Active {
		return nil, apperrors.ErrUnauthorized
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint64) (*dto.ProfileDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ProfileDTO{
		ID:     user.ID,
		Fio:    user.Fio,
		Email:  user.Email,
		RoleID: user.RoleID,
		CityID: user.CityID,
	}, nil
}
