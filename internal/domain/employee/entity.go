package employee

import "time"

// RoamingWindow is an approved span of free-roaming field work. While the
// window is active the employee's permitted area is the window's own bounds
// instead of the branch geofence.
type RoamingWindow struct {
	StartsAt     time.Time
	EndsAt       time.Time
	Latitude     float64
	Longitude    float64
	RadiusMeters int
}

// Active reports whether the window covers the given instant.
func (w RoamingWindow) Active(at time.Time) bool {
	return !at.Before(w.StartsAt) && at.Before(w.EndsAt)
}

type Employee struct {
	ID       string
	TenantID string
	FullName string
	Active   bool

	// BranchID is the designated branch. Nil only while a roaming window
	// is the sole permitted area.
	BranchID *string

	// GeofenceRadiusMeters overrides the branch radius when set.
	GeofenceRadiusMeters *int

	RoamingWindow *RoamingWindow

	CreatedAt time.Time
	UpdatedAt time.Time
}
