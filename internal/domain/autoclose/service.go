package autoclose

import "context"

// SettingsService is the administrative surface for the per-tenant
// auto-closeout configuration.
type SettingsService interface {
	// GetSettings returns the tenant's settings, falling back to
	// DefaultSettings when none are stored.
	GetSettings(ctx context.Context, tenantID string) (Settings, error)

	// UpdateSettings validates and stores the tenant's settings.
	UpdateSettings(ctx context.Context, tenantID string, s Settings) (Settings, error)
}
