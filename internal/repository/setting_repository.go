package repository

import (
	"context"

	"taskquest/pkg/models"
)

// SettingRepository handles typed system settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Set(ctx context.Context, setting *models.SystemSetting) error
}

type settingRepository struct {
	db DBTX
}

// NewSettingRepository creates a new PostgreSQL settings repository
func NewSettingRepository(db DBTX) SettingRepository {
	return &settingRepository{db: db}
}

// Get retrieves a setting by key
func (r *settingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	query := `
		SELECT key, value, data_type, description, updated_at
		FROM system_settings
		WHERE key = $1
	`
	s := &models.SystemSetting{}
	var dataType string
	err := r.db.QueryRow(ctx, query, key).Scan(&s.Key, &s.Value, &dataType, &s.Description, &s.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err, "get_setting")
	}
	s.DataType = models.SettingDataType(dataType)
	return s, nil
}

// Set inserts or replaces a setting
func (r *settingRepository) Set(ctx context.Context, s *models.SystemSetting) error {
	query := `
		INSERT INTO system_settings (key, value, data_type, description, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    data_type = EXCLUDED.data_type,
		    description = CASE WHEN EXCLUDED.description = '' THEN system_settings.description
		                       ELSE EXCLUDED.description END,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, s.Key, s.Value, string(s.DataType), s.Description, s.UpdatedAt)
	if err != nil {
		return mapDBError(err, "set_setting")
	}
	return nil
}
