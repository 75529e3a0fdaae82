package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/presensia/presence-backend-go/internal/domain/auth"
	"github.com/presensia/presence-backend-go/internal/domain/user"
	"github.com/presensia/presence-backend-go/internal/pkg/jwt"
	"github.com/presensia/presence-backend-go/internal/repository/memory"
)

func newService(t *testing.T) (auth.Service, *memory.UserRepo, user.User) {
	t.Helper()

	users := memory.NewUserRepo()
	jwtService := jwt.NewJWTService("test-secret-key", "15m", "168h")

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	employeeID := "emp-1"
	created, err := users.Create(context.Background(), user.User{
		TenantID:     "tenant-1",
		EmployeeID:   &employeeID,
		Email:        "budi@acme.example",
		PasswordHash: string(hash),
		Role:         user.RoleEmployee,
	})
	require.NoError(t, err)

	return NewAuthService(users, jwtService), users, created
}

func TestLogin_Success(t *testing.T) {
	svc, _, _ := newService(t)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "budi@acme.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Greater(t, resp.AccessTokenExpiresIn, int64(0))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "budi@acme.example",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@acme.example",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLogin_ValidationError(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRefresh_RotatesTokens(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "budi@acme.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, auth.LoginRequest{
		Email:    "budi@acme.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	// An access token is not a refresh token.
	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestRefresh_Garbage(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestEventsToken(t *testing.T) {
	svc, _, created := newService(t)

	resp, err := svc.EventsToken(context.Background(), created.ID, created.TenantID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 300, resp.ExpiresIn)
}
