package session

import (
	"time"
)

// Checkout types
const (
	CheckoutTypeManual = "MANUAL"
	CheckoutTypeAuto   = "AUTO"
)

// Checkout reasons used by the automatic path. Manual checkouts carry no
// reason.
const (
	ReasonGPSBlocked    = "GPS_BLOCKED"
	ReasonOutsideBranch = "OUTSIDE_BRANCH"
)

// Session is one attendance session: a check-in and, eventually, a
// check-out. At most one session per employee may be open at a time.
type Session struct {
	ID         string
	EmployeeID string
	TenantID   string

	// CheckInAt is server-authoritative; DeviceReportedAt is what the
	// client claimed, kept for auditing clock drift.
	CheckInAt        time.Time
	DeviceReportedAt *time.Time

	CheckInLatitude  *float64
	CheckInLongitude *float64
	CheckInAccuracyM *float64

	CheckOutAt        *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutAccuracyM *float64

	CheckoutType   *string
	CheckoutReason *string

	DurationMinutes *int

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	EmployeeName *string
}

// Open reports whether the session has not been checked out yet.
func (s Session) Open() bool {
	return s.CheckOutAt == nil
}

// Closeout computes the derived check-out fields. It does not persist
// anything; the repository applies it with an only-if-still-open guard.
func (s *Session) Closeout(at time.Time, checkoutType string, reason *string, lat, lng, accuracy *float64) {
	s.CheckOutAt = &at
	s.CheckOutLatitude = lat
	s.CheckOutLongitude = lng
	s.CheckOutAccuracyM = accuracy
	s.CheckoutType = &checkoutType
	s.CheckoutReason = reason

	minutes := int(at.Sub(s.CheckInAt).Minutes())
	s.DurationMinutes = &minutes
}
