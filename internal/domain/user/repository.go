package user

import "context"

type Repository interface {
	// GetByEmail retrieves a user by email for login
	GetByEmail(ctx context.Context, email string) (User, error)

	// GetByID retrieves a user by id with tenant isolation
	GetByID(ctx context.Context, id string, tenantID string) (User, error)

	// Create creates a new user
	Create(ctx context.Context, u User) (User, error)
}
