package heartbeat

import (
	"time"

	"github.com/presensia/presence-backend-go/internal/pkg/validator"
)

// Status values returned to the client after each heartbeat.
const (
	StatusOK               = "OK"
	StatusPendingCreated   = "PENDING_CREATED"
	StatusPendingActive    = "PENDING_ACTIVE"
	StatusPendingCancelled = "PENDING_CANCELLED"
	StatusAutoClosed       = "AUTO_CLOSED"
	StatusSessionClosed    = "SESSION_CLOSED"
)

type Request struct {
	SessionID    string `json:"session_id"`
	InsideArea   bool   `json:"inside_area"`
	SignalUsable bool   `json:"signal_usable"`

	// Optional raw sample. When present the server re-evaluates the two
	// flags against the employee's geofence and trusts its own answer.
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
}

func (r *Request) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude and longitude must be provided together",
		})
	}

	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.AccuracyMeters != nil && *r.AccuracyMeters < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy_meters",
			Message: "accuracy_meters must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ClientConfig echoes the tenant's sampling settings so the client can steer
// its own reporting cadence and confirmation counting.
type ClientConfig struct {
	SampleIntervalSeconds int     `json:"sample_interval_seconds"`
	ConfirmSamples        int     `json:"confirm_samples"`
	MaxAccuracyMeters     float64 `json:"max_accuracy_meters"`
}

type Result struct {
	AutoCloseoutEnabled bool   `json:"auto_closeout_enabled"`
	Status              string `json:"status,omitempty"`

	Reason           *string    `json:"reason,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	SecondsRemaining *int       `json:"seconds_remaining,omitempty"`
	CancelReason     *string    `json:"cancel_reason,omitempty"`

	Config *ClientConfig `json:"config,omitempty"`
}
