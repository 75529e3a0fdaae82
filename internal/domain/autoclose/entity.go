package autoclose

import "time"

// Pending row statuses. CANCELLED and DONE are terminal for that row; a
// later problem episode creates a brand-new row.
const (
	StatusPending   = "PENDING"
	StatusCancelled = "CANCELLED"
	StatusDone      = "DONE"
)

// Cancellation reasons.
const (
	CancelReasonRecovered     = "RECOVERED"
	CancelReasonSessionClosed = "SESSION_CLOSED"
)

// Pending is one auto-closeout countdown: it exists only while a problem
// episode is active, and once terminal it is history, never a resumption
// point. At most one row per (employee, session) may be PENDING at any
// instant.
type Pending struct {
	ID         string
	EmployeeID string
	TenantID   string
	SessionID  string

	// Reason is the problem that started the countdown:
	// session.ReasonGPSBlocked or session.ReasonOutsideBranch.
	Reason string

	// EndsAt is the absolute expiry. There are no in-process timers;
	// expiry is detected by comparing EndsAt against wall-clock time.
	EndsAt time.Time

	Status    string
	CreatedAt time.Time

	CancelledAt  *time.Time
	CancelReason *string
	DoneAt       *time.Time
}

// Expired reports whether the countdown has run out at the given instant.
func (p Pending) Expired(now time.Time) bool {
	return !now.Before(p.EndsAt)
}

// SecondsRemaining returns the whole seconds until expiry, never negative.
func (p Pending) SecondsRemaining(now time.Time) int {
	remaining := int(p.EndsAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
