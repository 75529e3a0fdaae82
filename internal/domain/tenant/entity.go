package tenant

import (
	"time"
)

// Tenant is an isolated customer organization. Every core record belongs to
// exactly one tenant, and every repository method is scoped by tenant id.
type Tenant struct {
	ID   string
	Name string
	Slug string

	// WebhookURL, when set, receives finalized attendance sessions for
	// downstream payroll and reporting consumers.
	WebhookURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
