package autoclose

import (
	"context"
	"time"
)

// PendingRepository owns the countdown rows. All tenant-facing methods take
// tenantID to prevent cross-tenant data access. The at-most-one-PENDING
// invariant per (employee, session) is the repository's to enforce, with an
// atomic conditional insert rather than a check-then-insert in the caller.
type PendingRepository interface {
	// CreateIfAbsent inserts a new PENDING row unless one already exists
	// for the same (employee, session). Returns the live row and whether
	// this call created it. Terminal rows for the pair are ignored; they
	// never influence the new row's EndsAt.
	CreateIfAbsent(ctx context.Context, p Pending) (Pending, bool, error)

	// GetPending retrieves the live PENDING row for (employee, session).
	// Returns ErrPendingNotFound when there is none.
	GetPending(ctx context.Context, employeeID, sessionID, tenantID string) (Pending, error)

	// Cancel transitions a row PENDING → CANCELLED. Reports whether this
	// call performed the transition; false means the row was no longer
	// PENDING.
	Cancel(ctx context.Context, id, tenantID, reason string, at time.Time) (bool, error)

	// Complete transitions a row PENDING → DONE. Reports whether this
	// call performed the transition.
	Complete(ctx context.Context, id, tenantID string, at time.Time) (bool, error)

	// ListExpired returns PENDING rows whose EndsAt has passed, across
	// tenants, for the background sweep. Each row carries its tenant id.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Pending, error)
}

// SettingsRepository owns the per-tenant configuration rows.
type SettingsRepository interface {
	// GetByTenant retrieves a tenant's settings.
	// Returns ErrSettingsNotFound when the tenant has no row.
	GetByTenant(ctx context.Context, tenantID string) (Settings, error)

	// Upsert writes a tenant's settings as a single atomic
	// insert-or-overwrite.
	Upsert(ctx context.Context, s Settings) error
}
