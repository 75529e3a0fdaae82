package session

import (
	"context"
)

// Repository defines data access for attendance sessions. All methods take
// tenantID to prevent cross-tenant data access.
type Repository interface {
	// Create creates a new session. Returns ErrOpenSessionExists when the
	// employee already has an open session; the single-open-session
	// invariant is enforced structurally, not by a prior read.
	Create(ctx context.Context, s Session) (Session, error)

	// GetByID retrieves a session by id with tenant isolation
	GetByID(ctx context.Context, id string, tenantID string) (Session, error)

	// GetOpenSession retrieves the employee's open session, if any.
	// Returns ErrSessionNotFound when there is none.
	GetOpenSession(ctx context.Context, employeeID string, tenantID string) (Session, error)

	// Close applies the check-out fields atomically, guarded by
	// "only if still open". Returns ErrSessionAlreadyClosed when the
	// session was closed by a concurrent caller, ErrSessionNotFound when
	// the id does not resolve under this tenant.
	Close(ctx context.Context, s Session) (Session, error)

	// List retrieves sessions with filters and pagination
	List(ctx context.Context, filter Filter, tenantID string) ([]Session, int64, error)
}
