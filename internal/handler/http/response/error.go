package response

import (
	"errors"
	"net/http"

	"github.com/presensia/presence-backend-go/internal/domain/auth"
	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/domain/branch"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/domain/user"
	"github.com/presensia/presence-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		Unauthorized(w, "Refresh token is invalid or expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")

	// Directory errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is inactive")
	case errors.Is(err, branch.ErrBranchNotFound):
		NotFound(w, "Branch not found")
	case errors.Is(err, tenant.ErrTenantNotFound):
		NotFound(w, "Tenant not found")
	case errors.Is(err, tenant.ErrTenantMismatch):
		Forbidden(w, "Record does not belong to this tenant")

	// Session errors
	case errors.Is(err, session.ErrOpenSessionExists):
		Conflict(w, "An open session already exists")
	case errors.Is(err, session.ErrNotCheckedIn):
		Conflict(w, "No open session to check out of")
	case errors.Is(err, session.ErrOutsideGeofence):
		BadRequest(w, "Location is outside the permitted area", nil)
	case errors.Is(err, session.ErrSessionAlreadyClosed):
		Conflict(w, "Session is already closed")
	case errors.Is(err, session.ErrSessionNotFound):
		NotFound(w, "Session not found")

	// Auto-closeout errors
	case errors.Is(err, autoclose.ErrPendingNotFound):
		NotFound(w, "No pending auto-closeout found")
	case errors.Is(err, autoclose.ErrSettingsNotFound):
		NotFound(w, "Auto-closeout settings not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
