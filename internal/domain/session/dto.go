package session

import (
	"strings"
	"time"

	"github.com/presensia/presence-backend-go/internal/pkg/validator"
)

// ========================================
// SESSION DTOs
// ========================================

type CheckInRequest struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	AccuracyMeters   *float64 `json:"accuracy_meters,omitempty"`
	DeviceReportedAt *string  `json:"device_reported_at,omitempty"` // RFC3339
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
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

	if r.DeviceReportedAt != nil && *r.DeviceReportedAt != "" {
		if _, ok := validator.IsValidDateTime(*r.DeviceReportedAt); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "device_reported_at",
				Message: "device_reported_at must be an RFC3339 timestamp",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
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

type SessionResponse struct {
	ID                string   `json:"id"`
	EmployeeID        string   `json:"employee_id"`
	EmployeeName      *string  `json:"employee_name,omitempty"`
	CheckInTime       string   `json:"check_in_time"`
	CheckOutTime      *string  `json:"check_out_time,omitempty"`
	CheckInLatitude   *float64 `json:"check_in_latitude,omitempty"`
	CheckInLongitude  *float64 `json:"check_in_longitude,omitempty"`
	CheckOutLatitude  *float64 `json:"check_out_latitude,omitempty"`
	CheckOutLongitude *float64 `json:"check_out_longitude,omitempty"`
	CheckoutType      *string  `json:"checkout_type,omitempty"`
	CheckoutReason    *string  `json:"checkout_reason,omitempty"`
	DurationMinutes   *int     `json:"duration_minutes,omitempty"`
}

// StatusResponse describes the employee's current attendance state for the
// client UI, including any running auto-closeout countdown.
type StatusResponse struct {
	HasOpenSession   bool             `json:"has_open_session"`
	OpenSession      *SessionResponse `json:"open_session,omitempty"`
	CountdownActive  bool             `json:"countdown_active"`
	CountdownReason  *string          `json:"countdown_reason,omitempty"`
	CountdownEndsAt  *time.Time       `json:"countdown_ends_at,omitempty"`
	SecondsRemaining *int             `json:"seconds_remaining,omitempty"`
}

type Filter struct {
	EmployeeID   *string `json:"employee_id,omitempty"`
	StartDate    *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	OpenOnly     bool    `json:"open_only"`
	CheckoutType *string `json:"checkout_type,omitempty"` // MANUAL or AUTO

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.CheckoutType != nil && *f.CheckoutType != "" {
		normalized := strings.ToUpper(*f.CheckoutType)
		validTypes := []string{CheckoutTypeManual, CheckoutTypeAuto}
		if !validator.IsInSlice(normalized, validTypes) {
			errs = append(errs, validator.ValidationError{
				Field:   "checkout_type",
				Message: "checkout_type must be one of: MANUAL, AUTO",
			})
		} else {
			f.CheckoutType = &normalized
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Sessions   []SessionResponse `json:"sessions"`
}
