package http

import (
	"encoding/json"
	"net/http"

	"github.com/presensia/presence-backend-go/internal/domain/heartbeat"
	"github.com/presensia/presence-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presence-backend-go/internal/handler/http/response"
)

type HeartbeatHandler interface {
	Record(w http.ResponseWriter, r *http.Request)
}

type heartbeatHandlerImpl struct {
	heartbeatService heartbeat.Service
}

func NewHeartbeatHandler(heartbeatService heartbeat.Service) HeartbeatHandler {
	return &heartbeatHandlerImpl{heartbeatService: heartbeatService}
}

// Record implements HeartbeatHandler. The client calls this on a fixed
// interval while a session is open; the response tells it what the state
// machine did and what cadence to keep sampling at.
func (h *heartbeatHandlerImpl) Record(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok || identity.EmployeeID == "" {
		response.Unauthorized(w, "Employee account required")
		return
	}

	var req heartbeat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.heartbeatService.RecordHeartbeat(r.Context(), identity.TenantID, identity.EmployeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
