package http

import (
	"encoding/json"
	"net/http"

	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presence-backend-go/internal/handler/http/response"
)

type SettingsHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type settingsHandlerImpl struct {
	settingsService autoclose.SettingsService
}

func NewSettingsHandler(settingsService autoclose.SettingsService) SettingsHandler {
	return &settingsHandlerImpl{settingsService: settingsService}
}

// Get implements SettingsHandler.
func (h *settingsHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	settings, err := h.settingsService.GetSettings(r.Context(), identity.TenantID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, settings)
}

// Update implements SettingsHandler.
func (h *settingsHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req autoclose.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	settings, err := h.settingsService.UpdateSettings(r.Context(), identity.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Settings updated", settings)
}
