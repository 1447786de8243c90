package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type settingRepository interface {
	FindByKey(ctx context.Context, key string) (*models.Setting, error)
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, s *models.Setting) error
}

// SettingService exposes planner settings and builds the typed rule
// snapshot consumed by validation and optimization.
type SettingService struct {
	repo   settingRepository
	logger *zap.Logger
}

// NewSettingService instantiates SettingService.
func NewSettingService(repo settingRepository, logger *zap.Logger) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{repo: repo, logger: logger}
}

// List returns all stored settings.
func (s *SettingService) List(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	return settings, nil
}

// Upsert stores a setting value under the given key.
func (s *SettingService) Upsert(ctx context.Context, key, category, label string, value json.RawMessage) (*models.Setting, error) {
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "setting key is required")
	}
	if !json.Valid(value) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "setting value must be valid JSON")
	}

	setting := models.Setting{
		Key:      key,
		Value:    types.JSONText(value),
		Category: category,
		Label:    label,
	}
	if err := s.repo.Upsert(ctx, &setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store setting")
	}
	return &setting, nil
}

// PlanningRules builds a per-request snapshot of the planning tunables.
// Absent or malformed values fall back to the documented defaults so a
// broken setting row can never take validation down.
func (s *SettingService) PlanningRules(ctx context.Context) (models.PlanningRules, error) {
	rules := models.DefaultPlanningRules()

	if v, ok, err := s.intSetting(ctx, models.SettingLeadTimeIdealWeeks); err != nil {
		return rules, err
	} else if ok {
		rules.LeadTimeIdealWeeks = v
	}
	if v, ok, err := s.intSetting(ctx, models.SettingLeadTimeMinimumWeeks); err != nil {
		return rules, err
	} else if ok {
		rules.LeadTimeMinimumWeeks = v
	}

	if setting, err := s.find(ctx, models.SettingEnergyRules); err != nil {
		return rules, err
	} else if setting != nil {
		var energy struct {
			FullDayBlocksEvening *bool `json:"full_day_blocks_evening"`
		}
		if err := json.Unmarshal(setting.Value, &energy); err != nil {
			s.logger.Warn("malformed energy_rules setting, using defaults", zap.Error(err))
		} else if energy.FullDayBlocksEvening != nil {
			rules.FullDayBlocksEvening = *energy.FullDayBlocksEvening
		}
	}

	if setting, err := s.find(ctx, models.SettingYearlyTargets); err != nil {
		return rules, err
	} else if setting != nil {
		targets := map[string]int{}
		if err := json.Unmarshal(setting.Value, &targets); err != nil {
			s.logger.Warn("malformed yearly_targets setting, using defaults", zap.Error(err))
		} else {
			rules.YearlyTargets = targets
		}
	}

	return rules, nil
}

func (s *SettingService) intSetting(ctx context.Context, key string) (int, bool, error) {
	setting, err := s.find(ctx, key)
	if err != nil || setting == nil {
		return 0, false, err
	}
	var v int
	if err := json.Unmarshal(setting.Value, &v); err != nil {
		s.logger.Warn("malformed numeric setting, using default", zap.String("key", key), zap.Error(err))
		return 0, false, nil
	}
	return v, true, nil
}

func (s *SettingService) find(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}
	return setting, nil
}
