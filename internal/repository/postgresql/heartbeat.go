package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/heartbeat"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type heartbeatRepositoryImpl struct {
	db *database.DB
}

func NewHeartbeatRepository(db *database.DB) heartbeat.Repository {
	return &heartbeatRepositoryImpl{db: db}
}

// Upsert implements heartbeat.Repository. One row per employee; every report
// overwrites the previous one in a single statement.
func (r *heartbeatRepositoryImpl) Upsert(ctx context.Context, hb heartbeat.Heartbeat) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO heartbeats (
			employee_id, tenant_id, session_id, last_seen_at, inside_area, signal_usable,
			problem_reason, latitude, longitude, accuracy_meters, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (employee_id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			session_id = EXCLUDED.session_id,
			last_seen_at = EXCLUDED.last_seen_at,
			inside_area = EXCLUDED.inside_area,
			signal_usable = EXCLUDED.signal_usable,
			problem_reason = EXCLUDED.problem_reason,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			accuracy_meters = EXCLUDED.accuracy_meters,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		hb.EmployeeID, hb.TenantID, hb.SessionID, hb.LastSeenAt, hb.InsideArea, hb.SignalUsable,
		hb.ProblemReason, hb.Latitude, hb.Longitude, hb.AccuracyMeters,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert heartbeat: %w", err)
	}

	return nil
}

// Get implements heartbeat.Repository.
func (r *heartbeatRepositoryImpl) Get(ctx context.Context, employeeID string, tenantID string) (heartbeat.Heartbeat, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, tenant_id, session_id, last_seen_at, inside_area, signal_usable,
			   problem_reason, latitude, longitude, accuracy_meters, updated_at
		FROM heartbeats
		WHERE employee_id = $1 AND tenant_id = $2
	`

	var hb heartbeat.Heartbeat
	err := q.QueryRow(ctx, query, employeeID, tenantID).Scan(
		&hb.EmployeeID, &hb.TenantID, &hb.SessionID, &hb.LastSeenAt, &hb.InsideArea, &hb.SignalUsable,
		&hb.ProblemReason, &hb.Latitude, &hb.Longitude, &hb.AccuracyMeters, &hb.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return heartbeat.Heartbeat{}, heartbeat.ErrHeartbeatNotFound
		}
		return heartbeat.Heartbeat{}, fmt.Errorf("failed to get heartbeat: %w", err)
	}

	return hb, nil
}
