package models

import "github.com/shopspring/decimal"

// ScenarioResult reports the revenue delta of a hypothetical plan change.
type ScenarioResult struct {
	CurrentRevenue   decimal.Decimal `json:"current_revenue"`
	ScenarioRevenue  decimal.Decimal `json:"scenario_revenue"`
	Difference       decimal.Decimal `json:"difference"`
	PercentageChange decimal.Decimal `json:"percentage_change"`
	AddedRevenue     decimal.Decimal `json:"added_revenue"`
	RemovedRevenue   decimal.Decimal `json:"removed_revenue"`
}

// CapacityEntry reports one instructor's utilisation over a period.
type CapacityEntry struct {
	Person             PersonRef `json:"person"`
	PersonType         string    `json:"person_type"`
	CurrentAssignments int       `json:"current_assignments"`
	MaxCapacity        int       `json:"max_capacity"`
	RemainingCapacity  int       `json:"remaining_capacity"`
	Utilization        float64   `json:"utilization"`
}

// RevenueReport aggregates forecast revenue over a period.
type RevenueReport struct {
	Period           string                     `json:"period"`
	TotalRevenue     decimal.Decimal            `json:"total_revenue"`
	ByWorkshopType   map[string]decimal.Decimal `json:"by_workshop_type"`
	ByLocation       map[string]decimal.Decimal `json:"by_location"`
	WorkshopCount    int                        `json:"workshop_count"`
	ParticipantCount int                        `json:"participant_count"`
}

// TargetReport compares planned workshop counts against a yearly target.
type TargetReport struct {
	WorkshopType string `json:"workshop_type"`
	YearlyTarget int    `json:"yearly_target"`
	CurrentCount int    `json:"current_count"`
	Gap          int    `json:"gap"`
	OnTrack      bool   `json:"on_track"`
}
