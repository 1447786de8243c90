package dto

// CreateWorkshopRequest plans a new workshop. Validation runs before the
// write; warnings block unless Force is set on the call.
type CreateWorkshopRequest struct {
	TypeID     string         `json:"typeId" validate:"required"`
	LocationID string         `json:"locationId" validate:"required"`
	StartDate  string         `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    *string        `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Notes      *string        `json:"notes"`
	Sessions   []SessionInput `json:"sessions" validate:"omitempty,dive"`
}

// UpdateWorkshopRequest mutates planning fields of an existing workshop.
// Nil fields are left untouched.
type UpdateWorkshopRequest struct {
	LocationID          *string `json:"locationId"`
	StartDate           *string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate             *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Status              *string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED CONFIRMED COMPLETED CANCELLED"`
	CurrentParticipants *int    `json:"currentParticipants" validate:"omitempty,min=0"`
	Notes               *string `json:"notes"`
}
