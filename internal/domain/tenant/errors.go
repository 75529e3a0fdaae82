package tenant

import "errors"

var (
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantMismatch is returned when a record exists but is owned by a
	// different tenant than the caller resolved to. It is rejected loudly
	// rather than silently filtered so cross-tenant bugs surface.
	ErrTenantMismatch = errors.New("record does not belong to this tenant")
)
