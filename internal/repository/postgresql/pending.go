package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type pendingRepositoryImpl struct {
	db *database.DB
}

func NewPendingRepository(db *database.DB) autoclose.PendingRepository {
	return &pendingRepositoryImpl{db: db}
}

const pendingColumns = `
	id, employee_id, tenant_id, session_id, reason, ends_at, status,
	created_at, cancelled_at, cancel_reason, done_at
`

func scanPending(row pgx.Row) (autoclose.Pending, error) {
	var p autoclose.Pending
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.TenantID, &p.SessionID, &p.Reason, &p.EndsAt, &p.Status,
		&p.CreatedAt, &p.CancelledAt, &p.CancelReason, &p.DoneAt,
	)
	return p, err
}

// CreateIfAbsent implements autoclose.PendingRepository. The partial unique
// index on (employee_id, session_id) WHERE status = 'PENDING' makes the
// insert race-free: concurrent heartbeats produce exactly one live row, and
// terminal rows never block a new episode.
func (r *pendingRepositoryImpl) CreateIfAbsent(ctx context.Context, p autoclose.Pending) (autoclose.Pending, bool, error) {
	q := GetQuerier(ctx, r.db)

	insertQuery := `
		INSERT INTO pending_auto_closeouts (employee_id, tenant_id, session_id, reason, ends_at, status)
		VALUES ($1, $2, $3, $4, $5, 'PENDING')
		ON CONFLICT (employee_id, session_id) WHERE status = 'PENDING' DO NOTHING
		RETURNING ` + pendingColumns + `
	`

	created, err := scanPending(q.QueryRow(ctx, insertQuery,
		p.EmployeeID, p.TenantID, p.SessionID, p.Reason, p.EndsAt,
	))
	if err == nil {
		return created, true, nil
	}
	if err != pgx.ErrNoRows {
		return autoclose.Pending{}, false, fmt.Errorf("failed to create pending auto-closeout: %w", err)
	}

	// A live row already exists. Return it without touching its deadline.
	existing, err := r.GetPending(ctx, p.EmployeeID, p.SessionID, p.TenantID)
	if err != nil {
		return autoclose.Pending{}, false, err
	}

	return existing, false, nil
}

// GetPending implements autoclose.PendingRepository.
func (r *pendingRepositoryImpl) GetPending(ctx context.Context, employeeID, sessionID, tenantID string) (autoclose.Pending, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + pendingColumns + `
		FROM pending_auto_closeouts
		WHERE employee_id = $1
		  AND session_id = $2
		  AND tenant_id = $3
		  AND status = 'PENDING'
	`

	p, err := scanPending(q.QueryRow(ctx, query, employeeID, sessionID, tenantID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return autoclose.Pending{}, autoclose.ErrPendingNotFound
		}
		return autoclose.Pending{}, fmt.Errorf("failed to get pending auto-closeout: %w", err)
	}

	return p, nil
}

// Cancel implements autoclose.PendingRepository. The status guard in the
// WHERE clause means only one caller ever wins the transition.
func (r *pendingRepositoryImpl) Cancel(ctx context.Context, id, tenantID, reason string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pending_auto_closeouts
		SET status = 'CANCELLED', cancelled_at = $1, cancel_reason = $2
		WHERE id = $3 AND tenant_id = $4 AND status = 'PENDING'
	`

	tag, err := q.Exec(ctx, query, at, reason, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel pending auto-closeout: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Complete implements autoclose.PendingRepository.
func (r *pendingRepositoryImpl) Complete(ctx context.Context, id, tenantID string, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE pending_auto_closeouts
		SET status = 'DONE', done_at = $1
		WHERE id = $2 AND tenant_id = $3 AND status = 'PENDING'
	`

	tag, err := q.Exec(ctx, query, at, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to complete pending auto-closeout: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListExpired implements autoclose.PendingRepository.
func (r *pendingRepositoryImpl) ListExpired(ctx context.Context, now time.Time, limit int) ([]autoclose.Pending, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + pendingColumns + `
		FROM pending_auto_closeouts
		WHERE status = 'PENDING' AND ends_at <= $1
		ORDER BY ends_at ASC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auto-closeouts: %w", err)
	}
	defer rows.Close()

	var expired []autoclose.Pending
	for rows.Next() {
		var p autoclose.Pending
		err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.TenantID, &p.SessionID, &p.Reason, &p.EndsAt, &p.Status,
			&p.CreatedAt, &p.CancelledAt, &p.CancelReason, &p.DoneAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expired auto-closeout row: %w", err)
		}
		expired = append(expired, p)
	}

	return expired, nil
}
