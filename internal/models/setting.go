package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Setting is one tunable stored as key → JSON value.
type Setting struct {
	ID        string         `db:"id" json:"id"`
	Key       string         `db:"key" json:"key"`
	Value     types.JSONText `db:"value" json:"value"`
	Category  string         `db:"category" json:"category"`
	Label     string         `db:"label" json:"label"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Setting keys recognised by the planning core.
const (
	SettingLeadTimeIdealWeeks   = "publication_lead_time_ideal_weeks"
	SettingLeadTimeMinimumWeeks = "publication_lead_time_minimum_weeks"
	SettingEnergyRules          = "energy_rules"
	SettingYearlyTargets        = "yearly_targets"
)

// PlanningRules is the typed per-request snapshot of planning settings.
// It is constructed once per validation/optimization call and never shared
// across concurrent callers.
type PlanningRules struct {
	LeadTimeIdealWeeks   int
	LeadTimeMinimumWeeks int
	FullDayBlocksEvening bool
	YearlyTargets        map[string]int
}

// DefaultPlanningRules returns the documented fallbacks used when a setting
// is absent or malformed.
func DefaultPlanningRules() PlanningRules {
	return PlanningRules{
		LeadTimeIdealWeeks:   8,
		LeadTimeMinimumWeeks: 4,
		FullDayBlocksEvening: true,
		YearlyTargets:        map[string]int{},
	}
}
