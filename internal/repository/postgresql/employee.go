package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/employee"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Repository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.Repository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, full_name, active, branch_id, geofence_radius_meters,
			   roaming_starts_at, roaming_ends_at, roaming_latitude, roaming_longitude, roaming_radius_meters,
			   created_at, updated_at
		FROM employees
		WHERE id = $1 AND tenant_id = $2
	`

	var e employee.Employee
	var roamingStartsAt, roamingEndsAt *time.Time
	var roamingLat, roamingLng *float64
	var roamingRadius *int

	err := q.QueryRow(ctx, query, id, tenantID).Scan(
		&e.ID, &e.TenantID, &e.FullName, &e.Active, &e.BranchID, &e.GeofenceRadiusMeters,
		&roamingStartsAt, &roamingEndsAt, &roamingLat, &roamingLng, &roamingRadius,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by ID: %w", err)
	}

	if roamingStartsAt != nil && roamingEndsAt != nil && roamingLat != nil && roamingLng != nil && roamingRadius != nil {
		e.RoamingWindow = &employee.RoamingWindow{
			StartsAt:     *roamingStartsAt,
			EndsAt:       *roamingEndsAt,
			Latitude:     *roamingLat,
			Longitude:    *roamingLng,
			RadiusMeters: *roamingRadius,
		}
	}

	return e, nil
}

// Create implements employee.Repository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (
			tenant_id, full_name, active, branch_id, geofence_radius_meters,
			roaming_starts_at, roaming_ends_at, roaming_latitude, roaming_longitude, roaming_radius_meters
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	var roamingStartsAt, roamingEndsAt *time.Time
	var roamingLat, roamingLng *float64
	var roamingRadius *int
	if e.RoamingWindow != nil {
		roamingStartsAt = &e.RoamingWindow.StartsAt
		roamingEndsAt = &e.RoamingWindow.EndsAt
		roamingLat = &e.RoamingWindow.Latitude
		roamingLng = &e.RoamingWindow.Longitude
		roamingRadius = &e.RoamingWindow.RadiusMeters
	}

	err := q.QueryRow(ctx, query,
		e.TenantID, e.FullName, e.Active, e.BranchID, e.GeofenceRadiusMeters,
		roamingStartsAt, roamingEndsAt, roamingLat, roamingLng, roamingRadius,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return e, nil
}
