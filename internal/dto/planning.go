package dto

// SessionInput describes one dated meeting when creating a workshop.
type SessionInput struct {
	SessionNumber      int    `json:"sessionNumber" validate:"required,min=1"`
	Date               string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime          string `json:"startTime" validate:"required"`
	EndTime            string `json:"endTime" validate:"required"`
	RequiresTechnician bool   `json:"requiresTechnician"`
}

// ValidateWorkshopRequest is a candidate workshop checked against the
// planning rules without being persisted.
type ValidateWorkshopRequest struct {
	TypeID     string         `json:"typeId" validate:"required"`
	LocationID string         `json:"locationId" validate:"required"`
	StartDate  string         `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    *string        `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Sessions   []SessionInput `json:"sessions" validate:"omitempty,dive"`

	// ExcludeWorkshopID exempts the named workshop from the occupancy
	// check so an update does not collide with itself.
	ExcludeWorkshopID string `json:"-"`
	// SkipLeadTimeChecks suppresses the publication lead time warnings,
	// used when revalidating workshops that are already planned.
	SkipLeadTimeChecks bool `json:"-"`
}

// ValidateAssignmentRequest is a candidate staff assignment.
type ValidateAssignmentRequest struct {
	WorkshopID string  `json:"workshopId" validate:"required"`
	SessionID  *string `json:"sessionId"`
	PersonID   string  `json:"personId" validate:"required"`
	Role       string  `json:"role" validate:"required,oneof=INSTRUCTOR CO_INSTRUCTOR GUEST TECHNICIAN"`
}

// PeriodQuery bounds an inclusive date range.
type PeriodQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"required,datetime=2006-01-02"`
}

// SlotQuery narrows the slot search.
type SlotQuery struct {
	TypeID     string `form:"typeId"`
	LocationID string `form:"locationId"`
	From       string `form:"from" validate:"required,datetime=2006-01-02"`
	To         string `form:"to" validate:"required,datetime=2006-01-02"`
}

// OptimizeRequest bounds the optimization horizon. TargetRevenue, when set,
// becomes a hard lower bound on estimated revenue.
type OptimizeRequest struct {
	From          string   `json:"from" validate:"required,datetime=2006-01-02"`
	To            string   `json:"to" validate:"required,datetime=2006-01-02"`
	TargetRevenue *float64 `json:"targetRevenue" validate:"omitempty,min=0"`
}

// ScenarioWorkshopInput identifies a hypothetical addition by type code only;
// the revenue estimate needs no location or date.
type ScenarioWorkshopInput struct {
	TypeCode string `json:"typeCode" validate:"required"`
}

// ScenarioRequest describes a what-if plan change.
type ScenarioRequest struct {
	AddWorkshops      []ScenarioWorkshopInput `json:"addWorkshops" validate:"omitempty,dive"`
	RemoveWorkshopIDs []string                `json:"removeWorkshopIds"`
}
