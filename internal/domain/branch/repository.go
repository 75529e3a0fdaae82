package branch

import "context"

// Repository defines data access for branches. All methods take tenantID to
// prevent cross-tenant data access.
type Repository interface {
	// GetByID retrieves a branch by id with tenant isolation
	GetByID(ctx context.Context, id string, tenantID string) (Branch, error)

	// GetByEmployeeID retrieves the branch an employee is assigned to
	GetByEmployeeID(ctx context.Context, employeeID string, tenantID string) (Branch, error)

	// Create creates a new branch
	Create(ctx context.Context, b Branch) (Branch, error)
}
