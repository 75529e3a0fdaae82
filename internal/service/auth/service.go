package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/presensia/presence-backend-go/internal/domain/auth"
	"github.com/presensia/presence-backend-go/internal/domain/user"
	"github.com/presensia/presence-backend-go/internal/pkg/jwt"
)

type AuthServiceImpl struct {
	userRepo   user.Repository
	jwtService jwt.Service
}

func NewAuthService(userRepo user.Repository, jwtService jwt.Service) auth.Service {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Login implements auth.Service.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, err := a.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return a.issueTokens(userData)
}

// Refresh implements auth.Service. Refresh tokens are stateless: the signed
// claims carry the user and tenant, and the user row is re-read so role or
// employee-link changes take effect on the next rotation.
func (a *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (auth.TokenResponse, error) {
	userID, tenantID, err := a.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidRefreshToken
	}

	userData, err := a.userRepo.GetByID(ctx, userID, tenantID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidRefreshToken
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return a.issueTokens(userData)
}

// EventsToken implements auth.Service.
func (a *AuthServiceImpl) EventsToken(_ context.Context, userID, tenantID string) (auth.EventsTokenResponse, error) {
	token, expiresIn, err := a.jwtService.GenerateEventsToken(userID, tenantID)
	if err != nil {
		return auth.EventsTokenResponse{}, fmt.Errorf("failed to create events token: %w", err)
	}

	return auth.EventsTokenResponse{Token: token, ExpiresIn: expiresIn}, nil
}

func (a *AuthServiceImpl) issueTokens(userData user.User) (auth.TokenResponse, error) {
	var resp auth.TokenResponse
	var err error

	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.jwtService.GenerateAccessToken(
		userData.ID, userData.Email, userData.EmployeeID, userData.TenantID, userData.Role,
	)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	resp.RefreshToken, resp.RefreshTokenExpiresIn, err = a.jwtService.GenerateRefreshToken(userData.ID, userData.TenantID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return resp, nil
}
