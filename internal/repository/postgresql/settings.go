package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/presensia/presence-backend-go/internal/domain/autoclose"
	"github.com/presensia/presence-backend-go/internal/pkg/database"
)

type settingsRepositoryImpl struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) autoclose.SettingsRepository {
	return &settingsRepositoryImpl{db: db}
}

// GetByTenant implements autoclose.SettingsRepository.
func (r *settingsRepositoryImpl) GetByTenant(ctx context.Context, tenantID string) (autoclose.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT tenant_id, enabled, grace_seconds, confirm_samples, sample_interval_seconds,
			   max_accuracy_meters, updated_at
		FROM auto_closeout_settings
		WHERE tenant_id = $1
	`

	var s autoclose.Settings
	err := q.QueryRow(ctx, query, tenantID).Scan(
		&s.TenantID, &s.Enabled, &s.GraceSeconds, &s.ConfirmSamples, &s.SampleIntervalSeconds,
		&s.MaxAccuracyMeters, &s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return autoclose.Settings{}, autoclose.ErrSettingsNotFound
		}
		return autoclose.Settings{}, fmt.Errorf("failed to get auto-closeout settings: %w", err)
	}

	return s, nil
}

// Upsert implements autoclose.SettingsRepository.
func (r *settingsRepositoryImpl) Upsert(ctx context.Context, s autoclose.Settings) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO auto_closeout_settings (
			tenant_id, enabled, grace_seconds, confirm_samples, sample_interval_seconds, max_accuracy_meters
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			grace_seconds = EXCLUDED.grace_seconds,
			confirm_samples = EXCLUDED.confirm_samples,
			sample_interval_seconds = EXCLUDED.sample_interval_seconds,
			max_accuracy_meters = EXCLUDED.max_accuracy_meters,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		s.TenantID, s.Enabled, s.GraceSeconds, s.ConfirmSamples, s.SampleIntervalSeconds, s.MaxAccuracyMeters,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert auto-closeout settings: %w", err)
	}

	return nil
}
