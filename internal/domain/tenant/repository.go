package tenant

import "context"

type Repository interface {
	// GetByID retrieves a tenant by its id
	GetByID(ctx context.Context, id string) (Tenant, error)

	// Create creates a new tenant
	Create(ctx context.Context, t Tenant) (Tenant, error)
}
