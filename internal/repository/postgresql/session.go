package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/session"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type sessionRepositoryImpl struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) session.Repository {
	return &sessionRepositoryImpl{db: db}
}

const sessionColumns = `
	id, employee_id, tenant_id, check_in_at, device_reported_at,
	check_in_latitude, check_in_longitude, check_in_accuracy_m,
	check_out_at, check_out_latitude, check_out_longitude, check_out_accuracy_m,
	checkout_type, checkout_reason, duration_minutes,
	created_at, updated_at
`

func scanSession(row pgx.Row) (session.Session, error) {
	var s session.Session
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.TenantID, &s.CheckInAt, &s.DeviceReportedAt,
		&s.CheckInLatitude, &s.CheckInLongitude, &s.CheckInAccuracyM,
		&s.CheckOutAt, &s.CheckOutLatitude, &s.CheckOutLongitude, &s.CheckOutAccuracyM,
		&s.CheckoutType, &s.CheckoutReason, &s.DurationMinutes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create implements session.Repository. The single-open-session invariant is
// enforced by the partial unique index on open rows; a conflicting insert
// returns no row instead of racing a prior read.
func (r *sessionRepositoryImpl) Create(ctx context.Context, s session.Session) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_sessions (
			employee_id, tenant_id, check_in_at, device_reported_at,
			check_in_latitude, check_in_longitude, check_in_accuracy_m
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id) WHERE check_out_at IS NULL DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.EmployeeID, s.TenantID, s.CheckInAt, s.DeviceReportedAt,
		s.CheckInLatitude, s.CheckInLongitude, s.CheckInAccuracyM,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return session.Session{}, session.ErrOpenSessionExists
		}
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	return s, nil
}

// GetByID implements session.Repository.
func (r *sessionRepositoryImpl) GetByID(ctx context.Context, id string, tenantID string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT s.id, s.employee_id, s.tenant_id, s.check_in_at, s.device_reported_at,
			   s.check_in_latitude, s.check_in_longitude, s.check_in_accuracy_m,
			   s.check_out_at, s.check_out_latitude, s.check_out_longitude, s.check_out_accuracy_m,
			   s.checkout_type, s.checkout_reason, s.duration_minutes,
			   s.created_at, s.updated_at,
			   e.full_name AS employee_name
		FROM attendance_sessions s
		LEFT JOIN employees e ON e.id = s.employee_id
		WHERE s.id = $1 AND s.tenant_id = $2
	`

	var s session.Session
	err := q.QueryRow(ctx, query, id, tenantID).Scan(
		&s.ID, &s.EmployeeID, &s.TenantID, &s.CheckInAt, &s.DeviceReportedAt,
		&s.CheckInLatitude, &s.CheckInLongitude, &s.CheckInAccuracyM,
		&s.CheckOutAt, &s.CheckOutLatitude, &s.CheckOutLongitude, &s.CheckOutAccuracyM,
		&s.CheckoutType, &s.CheckoutReason, &s.DurationMinutes,
		&s.CreatedAt, &s.UpdatedAt,
		&s.EmployeeName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to get session by ID: %w", err)
	}

	return s, nil
}

// GetOpenSession implements session.Repository.
func (r *sessionRepositoryImpl) GetOpenSession(ctx context.Context, employeeID string, tenantID string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + sessionColumns + `
		FROM attendance_sessions
		WHERE employee_id = $1
		  AND tenant_id = $2
		  AND check_out_at IS NULL
		ORDER BY check_in_at DESC
		LIMIT 1
	`

	s, err := scanSession(q.QueryRow(ctx, query, employeeID, tenantID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to get open session: %w", err)
	}

	return s, nil
}

// Close implements session.Repository. The WHERE check_out_at IS NULL guard
// makes concurrent close attempts resolve to exactly one winner.
func (r *sessionRepositoryImpl) Close(ctx context.Context, s session.Session) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_sessions
		SET check_out_at = $1,
			check_out_latitude = $2,
			check_out_longitude = $3,
			check_out_accuracy_m = $4,
			checkout_type = $5,
			checkout_reason = $6,
			duration_minutes = $7,
			updated_at = NOW()
		WHERE id = $8
		  AND tenant_id = $9
		  AND check_out_at IS NULL
		RETURNING ` + sessionColumns + `
	`

	closed, err := scanSession(q.QueryRow(ctx, query,
		s.CheckOutAt, s.CheckOutLatitude, s.CheckOutLongitude, s.CheckOutAccuracyM,
		s.CheckoutType, s.CheckoutReason, s.DurationMinutes,
		s.ID, s.TenantID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			// Distinguish a lost race from a bad id.
			if _, getErr := r.GetByID(ctx, s.ID, s.TenantID); getErr == nil {
				return session.Session{}, session.ErrSessionAlreadyClosed
			}
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to close session: %w", err)
	}

	return closed, nil
}

// List implements session.Repository.
func (r *sessionRepositoryImpl) List(ctx context.Context, filter session.Filter, tenantID string) ([]session.Session, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"s.tenant_id = $1"}
	args := []interface{}{tenantID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("s.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("s.check_in_at >= $%d::date", argIdx))
		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil && *filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("s.check_in_at < $%d::date + INTERVAL '1 day'", argIdx))
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.OpenOnly {
		conditions = append(conditions, "s.check_out_at IS NULL")
	}

	if filter.CheckoutType != nil && *filter.CheckoutType != "" {
		conditions = append(conditions, fmt.Sprintf("s.checkout_type = $%d", argIdx))
		args = append(args, *filter.CheckoutType)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := `SELECT COUNT(*) FROM attendance_sessions s WHERE ` + whereClause

	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.employee_id, s.tenant_id, s.check_in_at, s.device_reported_at,
			   s.check_in_latitude, s.check_in_longitude, s.check_in_accuracy_m,
			   s.check_out_at, s.check_out_latitude, s.check_out_longitude, s.check_out_accuracy_m,
			   s.checkout_type, s.checkout_reason, s.duration_minutes,
			   s.created_at, s.updated_at,
			   e.full_name AS employee_name
		FROM attendance_sessions s
		LEFT JOIN employees e ON e.id = s.employee_id
		WHERE %s
		ORDER BY s.check_in_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.Session
	for rows.Next() {
		var s session.Session
		err := rows.Scan(
			&s.ID, &s.EmployeeID, &s.TenantID, &s.CheckInAt, &s.DeviceReportedAt,
			&s.CheckInLatitude, &s.CheckInLongitude, &s.CheckInAccuracyM,
			&s.CheckOutAt, &s.CheckOutLatitude, &s.CheckOutLongitude, &s.CheckOutAccuracyM,
			&s.CheckoutType, &s.CheckoutReason, &s.DurationMinutes,
			&s.CreatedAt, &s.UpdatedAt,
			&s.EmployeeName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, total, nil
}
