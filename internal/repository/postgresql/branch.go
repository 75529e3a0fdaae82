package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/branch"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type branchRepositoryImpl struct {
	db *database.DB
}

func NewBranchRepository(db *database.DB) branch.Repository {
	return &branchRepositoryImpl{db: db}
}

// GetByID implements branch.Repository.
func (r *branchRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, name, latitude, longitude, radius_meters, timezone, created_at, updated_at
		FROM branches
		WHERE id = $1 AND tenant_id = $2
	`

	var b branch.Branch
	err := q.QueryRow(ctx, query, id, tenantID).Scan(
		&b.ID, &b.TenantID, &b.Name, &b.Latitude, &b.Longitude, &b.RadiusMeters,
		&b.Timezone, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return branch.Branch{}, branch.ErrBranchNotFound
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch by ID: %w", err)
	}

	return b, nil
}

// GetByEmployeeID implements branch.Repository.
func (r *branchRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string, tenantID string) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT b.id, b.tenant_id, b.name, b.latitude, b.longitude, b.radius_meters, b.timezone,
			   b.created_at, b.updated_at
		FROM branches b
		JOIN employees e ON e.branch_id = b.id
		WHERE e.id = $1 AND e.tenant_id = $2 AND b.tenant_id = $2
	`

	var b branch.Branch
	err := q.QueryRow(ctx, query, employeeID, tenantID).Scan(
		&b.ID, &b.TenantID, &b.Name, &b.Latitude, &b.Longitude, &b.RadiusMeters,
		&b.Timezone, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return branch.Branch{}, branch.ErrBranchNotFound
		}
		return branch.Branch{}, fmt.Errorf("failed to get branch by employee ID: %w", err)
	}

	return b, nil
}

// Create implements branch.Repository.
func (r *branchRepositoryImpl) Create(ctx context.Context, b branch.Branch) (branch.Branch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO branches (tenant_id, name, latitude, longitude, radius_meters, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		b.TenantID, b.Name, b.Latitude, b.Longitude, b.RadiusMeters, b.Timezone,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return branch.Branch{}, fmt.Errorf("failed to create branch: %w", err)
	}

	return b, nil
}
