package dto

// CreateAvailabilityRequest records a person's availability over a range.
type CreateAvailabilityRequest struct {
	PersonID  string  `json:"personId" validate:"required"`
	Type      string  `json:"type" validate:"required,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	StartDate string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason    *string `json:"reason"`
}

// UpdateAvailabilityRequest mutates an availability entry; nil means untouched.
type UpdateAvailabilityRequest struct {
	Type      *string `json:"type" validate:"omitempty,oneof=AVAILABLE UNAVAILABLE PREFERRED"`
	StartDate *string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Reason    *string `json:"reason"`
}
