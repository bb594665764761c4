package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Setting keys managed by the configure CLI.
const (
	SettingCORSOrigins       = "cors.allowed_origins"
	SettingRateLimitRate     = "ratelimit.rate"
	SettingRateLimitEnabled  = "ratelimit.enabled"
	SettingMaintenanceNotice = "maintenance.notice"
)

// SettingsRepository handles application setting database operations
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves a setting value by key
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM app_settings WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting not found: %w", err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}

	return value, nil
}

// Set stores a setting value, overwriting any existing value
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	return nil
}

// List retrieves all settings as a key/value map
func (r *SettingsRepository) List(ctx context.Context) (map[string]string, error) {
	query := `SELECT key, value FROM app_settings ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return settings, nil
}

// Delete removes a setting by key
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM app_settings WHERE key = $1`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}

	return nil
}
