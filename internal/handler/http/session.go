package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/handler/http/middleware"
	"github.com/presensia/presence-backend-go/internal/handler/http/response"
)

type SessionHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type sessionHandlerImpl struct {
	sessionService session.Service
}

func NewSessionHandler(sessionService session.Service) SessionHandler {
	return &sessionHandlerImpl{sessionService: sessionService}
}

// CheckIn implements SessionHandler.
func (h *sessionHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok || identity.EmployeeID == "" {
		response.Unauthorized(w, "Employee account required")
		return
	}

	var req session.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	resp, err := h.sessionService.CheckIn(r.Context(), identity.TenantID, identity.EmployeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in", resp)
}

// CheckOut implements SessionHandler.
func (h *sessionHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok || identity.EmployeeID == "" {
		response.Unauthorized(w, "Employee account required")
		return
	}

	var req session.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	resp, err := h.sessionService.CheckOut(r.Context(), identity.TenantID, identity.EmployeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out", resp)
}

// Status implements SessionHandler.
func (h *sessionHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok || identity.EmployeeID == "" {
		response.Unauthorized(w, "Employee account required")
		return
	}

	resp, err := h.sessionService.Status(r.Context(), identity.TenantID, identity.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// Get implements SessionHandler.
func (h *sessionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	resp, err := h.sessionService.Get(r.Context(), identity.TenantID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, resp)
}

// List implements SessionHandler.
func (h *sessionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.ResolveIdentity(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	filter := parseFilter(r)
	resp, err := h.sessionService.List(r.Context(), identity.TenantID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, resp.Sessions, &response.Meta{
		Page:       resp.Page,
		Limit:      resp.Limit,
		TotalItems: resp.TotalCount,
		TotalPages: resp.TotalPages,
	})
}

func parseFilter(r *http.Request) session.Filter {
	var filter session.Filter
	query := r.URL.Query()

	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if startDate := query.Get("start_date"); startDate != "" {
		filter.StartDate = &startDate
	}
	if endDate := query.Get("end_date"); endDate != "" {
		filter.EndDate = &endDate
	}
	if openOnly := query.Get("open_only"); openOnly != "" {
		filter.OpenOnly = openOnly == "true"
	}
	if checkoutType := query.Get("checkout_type"); checkoutType != "" {
		filter.CheckoutType = &checkoutType
	}
	if page := query.Get("page"); page != "" {
		if parsed, err := strconv.Atoi(page); err == nil {
			filter.Page = parsed
		}
	}
	if limit := query.Get("limit"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filter.Limit = parsed
		}
	}

	return filter
}
