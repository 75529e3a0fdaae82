package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/user"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.Repository {
	return &userRepositoryImpl{db: db}
}

// GetByEmail implements user.Repository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var u user.User
	err := q.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.TenantID, &u.EmployeeID, &u.Email, &u.PasswordHash, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// GetByID implements user.Repository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, employee_id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1 AND tenant_id = $2
	`

	var u user.User
	err := q.QueryRow(ctx, query, id, tenantID).Scan(
		&u.ID, &u.TenantID, &u.EmployeeID, &u.Email, &u.PasswordHash, &u.Role,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return u, nil
}

// Create implements user.Repository.
func (r *userRepositoryImpl) Create(ctx context.Context, u user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (tenant_id, employee_id, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		u.TenantID, u.EmployeeID, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}
