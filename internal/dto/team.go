package dto

// CreatePersonRequest registers an instructor or technician.
type CreatePersonRequest struct {
	Name                string   `json:"name" validate:"required"`
	Email               *string  `json:"email" validate:"omitempty,email"`
	Phone               *string  `json:"phone"`
	Type                string   `json:"type" validate:"required,oneof=INSTRUCTOR EXTERNAL_INSTRUCTOR TECHNICIAN"`
	MaxDaysPerWeek      *int     `json:"maxDaysPerWeek" validate:"omitempty,min=1,max=7"`
	PreferredLocationID *string  `json:"preferredLocationId"`
	QualifiedTypeIDs    []string `json:"qualifiedTypeIds"`
	Notes               *string  `json:"notes"`
}

// UpdatePersonRequest mutates person fields; nil means untouched.
type UpdatePersonRequest struct {
	Name                *string  `json:"name"`
	Email               *string  `json:"email" validate:"omitempty,email"`
	Phone               *string  `json:"phone"`
	MaxDaysPerWeek      *int     `json:"maxDaysPerWeek" validate:"omitempty,min=1,max=7"`
	PreferredLocationID *string  `json:"preferredLocationId"`
	QualifiedTypeIDs    []string `json:"qualifiedTypeIds"`
	Active              *bool    `json:"active"`
	Notes               *string  `json:"notes"`
}

// CreateAssignmentRequest binds a person to a workshop in a role.
type CreateAssignmentRequest struct {
	WorkshopID string  `json:"workshopId" validate:"required"`
	SessionID  *string `json:"sessionId"`
	PersonID   string  `json:"personId" validate:"required"`
	Role       string  `json:"role" validate:"required,oneof=INSTRUCTOR CO_INSTRUCTOR GUEST TECHNICIAN"`
	Notes      *string `json:"notes"`
}

// UpdateAssignmentRequest changes the status or notes of an assignment.
type UpdateAssignmentRequest struct {
	Status *string `json:"status" validate:"omitempty,oneof=PENDING CONFIRMED DECLINED"`
	Notes  *string `json:"notes"`
}
