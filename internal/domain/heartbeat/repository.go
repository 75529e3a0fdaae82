package heartbeat

import "context"

// Repository defines data access for heartbeats. All methods take tenantID
// to prevent cross-tenant data access.
type Repository interface {
	// Upsert writes the latest sample for an employee as a single atomic
	// insert-or-overwrite. Repeated identical calls converge to the same
	// stored row.
	Upsert(ctx context.Context, hb Heartbeat) error

	// Get retrieves the latest sample for an employee.
	// Returns ErrHeartbeatNotFound when none was ever recorded.
	Get(ctx context.Context, employeeID string, tenantID string) (Heartbeat, error)
}
