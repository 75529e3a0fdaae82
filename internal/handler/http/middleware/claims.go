package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// Identity is the caller's resolved identity, extracted once at the edge.
// Services never reach into the token themselves; every operation below the
// handler takes these ids as explicit parameters.
type Identity struct {
	UserID     string
	TenantID   string
	EmployeeID string
	Role       string
}

// ResolveIdentity reads the verified access token claims from the request
// context. The second return is false when the mandatory ids are missing.
func ResolveIdentity(r *http.Request) (Identity, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return Identity{}, false
	}

	userID, _ := claims["user_id"].(string)
	tenantID, _ := claims["tenant_id"].(string)
	if userID == "" || tenantID == "" {
		return Identity{}, false
	}

	identity := Identity{
		UserID:   userID,
		TenantID: tenantID,
	}
	if employeeID, ok := claims["employee_id"].(string); ok {
		identity.EmployeeID = employeeID
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = role
	}
	return identity, true
}
