package employee

import "context"

// Repository defines data access for the employee directory. The directory
// is owned by administrative CRUD elsewhere; the core reads it. All methods
// take tenantID to prevent cross-tenant data access.
type Repository interface {
	// GetByID retrieves an employee by id with tenant isolation
	GetByID(ctx context.Context, id string, tenantID string) (Employee, error)

	// Create creates a new employee record
	Create(ctx context.Context, e Employee) (Employee, error)
}
