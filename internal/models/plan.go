package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan statuses returned by the optimizer.
const (
	PlanStatusSuccess    = "success"
	PlanStatusNoSolution = "no_solution"
)

// ScheduledWorkshop is one activated (type, location, date) triple in a plan.
type ScheduledWorkshop struct {
	WorkshopType WorkshopTypeRef `json:"workshop_type"`
	Location     LocationRef     `json:"location"`
	Date         time.Time       `json:"date"`
}

// PlanResult is the outcome of an optimization run. Optimal is only
// meaningful when Status is "success".
type PlanResult struct {
	Status           string              `json:"status"`
	Optimal          bool                `json:"optimal"`
	Scheduled        []ScheduledWorkshop `json:"scheduled_workshops"`
	Total            int                 `json:"total_workshops"`
	EstimatedRevenue decimal.Decimal     `json:"estimated_revenue"`
	Message          string              `json:"message,omitempty"`
}
