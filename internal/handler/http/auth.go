package http

import (
	"encoding/json"
	"net/http"

	"github.com/presensia/presence-backend-go/internal/domain/auth"
	"github.com/presensia/presence-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presence-backend-go/internal/handler/http/response"
	"github.com/presensia/presence-backend-go/internal/pkg/jwt"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	EventsToken(w http.ResponseWriter, r *http.Request)
}

type authHandlerImpl struct {
	authService auth.Service
	jwtService  jwt.Service
}

func NewAuthHandler(authService auth.Service, jwtService jwt.Service) AuthHandler {
	return &authHandlerImpl{
		authService: authService,
		jwtService:  jwtService,
	}
}

// Login implements AuthHandler.
func (h *authHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	http.SetCookie(w, h.jwtService.RefreshTokenCookie(tokens.RefreshToken, tokens.RefreshTokenExpiresIn))
	response.Success(w, tokens)
}

// Refresh implements AuthHandler. The refresh token travels in an HttpOnly
// cookie, never in the JSON body.
func (h *authHandlerImpl) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		response.Unauthorized(w, "Missing refresh token")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	http.SetCookie(w, h.jwtService.RefreshTokenCookie(tokens.RefreshToken, tokens.RefreshTokenExpiresIn))
	response.Success(w, tokens)
}

// EventsToken implements AuthHandler. Issues the short-lived token the SSE
// stream accepts as a query parameter.
func (h *authHandlerImpl) EventsToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, err := h.authService.EventsToken(r.Context(), identity.UserID, identity.TenantID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, token)
}
