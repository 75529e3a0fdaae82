package heartbeat

import "time"

// Heartbeat is the single latest known location-health sample for one
// employee. One row per employee, overwritten on every report, never a log.
type Heartbeat struct {
	EmployeeID   string
	TenantID     string
	SessionID    string
	LastSeenAt   time.Time
	InsideArea   bool
	SignalUsable bool

	// ProblemReason is set while the latest sample is problematic:
	// session.ReasonGPSBlocked or session.ReasonOutsideBranch.
	ProblemReason *string

	Latitude       *float64
	Longitude      *float64
	AccuracyMeters *float64

	UpdatedAt time.Time
}
