package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")
	ErrInvalidToken        = errors.New("token is invalid")
)
