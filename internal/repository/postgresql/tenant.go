package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/tenant"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type tenantRepositoryImpl struct {
	db *database.DB
}

func NewTenantRepository(db *database.DB) tenant.Repository {
	return &tenantRepositoryImpl{db: db}
}

// GetByID implements tenant.Repository.
func (r *tenantRepositoryImpl) GetByID(ctx context.Context, id string) (tenant.Tenant, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, slug, webhook_url, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`

	var t tenant.Tenant
	err := q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Slug, &t.WebhookURL, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return tenant.Tenant{}, tenant.ErrTenantNotFound
		}
		return tenant.Tenant{}, fmt.Errorf("failed to get tenant by ID: %w", err)
	}

	return t, nil
}

// Create implements tenant.Repository.
func (r *tenantRepositoryImpl) Create(ctx context.Context, t tenant.Tenant) (tenant.Tenant, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO tenants (name, slug, webhook_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query, t.Name, t.Slug, t.WebhookURL).Scan(
		&t.ID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return tenant.Tenant{}, fmt.Errorf("failed to create tenant: %w", err)
	}

	return t, nil
}
