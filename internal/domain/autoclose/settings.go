package autoclose

import (
	"time"

	"github.com/presensia/presence-backend-go/internal/pkg/validator"
)

// Settings is the per-tenant auto-closeout configuration. A tenant without
// a row gets DefaultSettings, which leaves the feature disabled.
type Settings struct {
	TenantID              string  `json:"-"`
	Enabled               bool    `json:"enabled"`
	GraceSeconds          int     `json:"grace_seconds"`
	ConfirmSamples        int     `json:"confirm_samples"`
	SampleIntervalSeconds int     `json:"sample_interval_seconds"`
	MaxAccuracyMeters     float64 `json:"max_accuracy_meters"`

	UpdatedAt time.Time `json:"-"`
}

// DefaultSettings returns the safe defaults applied when a tenant has no
// configuration: auto-closeout off, conventional sampling values.
func DefaultSettings(tenantID string) Settings {
	return Settings{
		TenantID:              tenantID,
		Enabled:               false,
		GraceSeconds:          900,
		ConfirmSamples:        3,
		SampleIntervalSeconds: 15,
		MaxAccuracyMeters:     50,
	}
}

// GracePeriod returns the grace duration.
func (s Settings) GracePeriod() time.Duration {
	return time.Duration(s.GraceSeconds) * time.Second
}

func (s *Settings) Validate() error {
	var errs validator.ValidationErrors

	if s.GraceSeconds <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "grace_seconds",
			Message: "grace_seconds must be positive",
		})
	}

	if s.ConfirmSamples <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "confirm_samples",
			Message: "confirm_samples must be positive",
		})
	}

	if s.SampleIntervalSeconds <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "sample_interval_seconds",
			Message: "sample_interval_seconds must be positive",
		})
	}

	if s.MaxAccuracyMeters < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "max_accuracy_meters",
			Message: "max_accuracy_meters must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
