package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/planner-api/internal/models"
)

const settingColumns = "id, key, value, category, label, updated_at"

// SettingRepository provides persistence for planner settings.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates a new setting repository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// FindByKey loads a setting by key.
func (r *SettingRepository) FindByKey(ctx context.Context, key string) (*models.Setting, error) {
	query := fmt.Sprintf("SELECT %s FROM settings WHERE key = $1", settingColumns)
	var s models.Setting
	if err := r.db.GetContext(ctx, &s, query, key); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all settings ordered by category then key.
func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	query := fmt.Sprintf("SELECT %s FROM settings ORDER BY category ASC, key ASC", settingColumns)
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// Upsert writes a setting, creating the key when absent.
func (r *SettingRepository) Upsert(ctx context.Context, s *models.Setting) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO settings (id, key, value, category, label, updated_at) VALUES (:id, :key, :value, :category, :label, :updated_at) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, category = EXCLUDED.category, label = EXCLUDED.label, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
