package jwt

import (
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/presensia/presence-backend-go/internal/domain/user"
)

type Service interface {
	GenerateAccessToken(userID string, email string, employeeID *string, tenantID string, role user.Role) (token string, expiresAt int64, err error)
	GenerateRefreshToken(userID string, tenantID string) (token string, expiresAt int64, err error)
	ValidateRefreshToken(tokenString string) (userID string, tenantID string, err error)
	GenerateEventsToken(userID string, tenantID string) (token string, expiresIn int, err error)
	ValidateEventsToken(tokenString string) (tenantID string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RefreshTokenCookie(token string, expiresAt int64) *http.Cookie
}

type JWTService struct {
	secretKey                  string
	accessTokenExpirationTime  string
	refreshTokenExpirationTime string
	tokenAuth                  *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string, refreshTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                  secretKey,
		accessTokenExpirationTime:  accessTokenExpirationTime,
		refreshTokenExpirationTime: refreshTokenExpirationTime,
		tokenAuth:                  jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, email string, employeeID *string, tenantID string, role user.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":     userID,
		"email":       email,
		"employee_id": j.returnValueOrNil(employeeID),
		"tenant_id":   tenantID,
		"role":        string(role),
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) GenerateRefreshToken(userID string, tenantID string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.refreshTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       expiresAt,
		"type":      "refresh",
	})
	return tokenString, expiresAt, err
}

// ValidateRefreshToken verifies a refresh token's signature, expiry, and
// type, and returns the user and tenant it was issued to.
func (j *JWTService) ValidateRefreshToken(tokenString string) (userID string, tenantID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "refresh" {
		return "", "", jwt.ErrInvalidJWT()
	}

	userVal, ok := token.Get("user_id")
	if !ok {
		return "", "", jwt.ErrInvalidJWT()
	}
	userID, ok = userVal.(string)
	if !ok || userID == "" {
		return "", "", jwt.ErrInvalidJWT()
	}

	tenantVal, ok := token.Get("tenant_id")
	if !ok {
		return "", "", jwt.ErrInvalidJWT()
	}
	tenantID, ok = tenantVal.(string)
	if !ok || tenantID == "" {
		return "", "", jwt.ErrInvalidJWT()
	}

	return userID, tenantID, nil
}

func (j *JWTService) RefreshTokenCookie(token string, expiresAt int64) *http.Cookie {
	return &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Path:     "/api/v1/auth",
		Expires:  time.Unix(expiresAt, 0),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	}
}

func (j *JWTService) returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	} else {
		return *value
	}
}

// GenerateEventsToken generates a short-lived token for SSE connections,
// which cannot carry an Authorization header.
func (j *JWTService) GenerateEventsToken(userID string, tenantID string) (token string, expiresIn int, err error) {
	expiresIn = 300 // 5 minutes in seconds
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":   userID,
		"tenant_id": tenantID,
		"type":      "events",
		"exp":       expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateEventsToken validates an SSE token and returns the tenant id the
// stream must be scoped to.
func (j *JWTService) ValidateEventsToken(tokenString string) (tenantID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != "events" {
		return "", jwt.ErrInvalidJWT()
	}

	tenantVal, ok := token.Get("tenant_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	tenantID, ok = tenantVal.(string)
	if !ok || tenantID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return tenantID, nil
}
