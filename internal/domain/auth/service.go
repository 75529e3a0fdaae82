package auth

import "context"

type Service interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	EventsToken(ctx context.Context, userID, tenantID string) (EventsTokenResponse, error)
}
