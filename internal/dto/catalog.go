package dto

// CreateLocationRequest registers a venue.
type CreateLocationRequest struct {
	Code          string   `json:"code" validate:"required,max=10"`
	Name          string   `json:"name" validate:"required"`
	Address       string   `json:"address"`
	OperatingDays []string `json:"operatingDays" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	CalendarID    *string  `json:"calendarId"`
}

// UpdateLocationRequest mutates venue fields; nil means untouched.
type UpdateLocationRequest struct {
	Name          *string  `json:"name"`
	Address       *string  `json:"address"`
	OperatingDays []string `json:"operatingDays" validate:"omitempty,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	CalendarID    *string  `json:"calendarId"`
	Active        *bool    `json:"active"`
}

// CreateWorkshopTypeRequest defines a course offering.
type CreateWorkshopTypeRequest struct {
	Code               string   `json:"code" validate:"required,max=20"`
	Name               string   `json:"name" validate:"required"`
	Description        *string  `json:"description"`
	DurationType       string   `json:"durationType" validate:"required,oneof=EVENING_SERIES MULTI_DAY SINGLE_DAY HALF_DAY SINGLE_SESSION"`
	DefaultStartTime   *string  `json:"defaultStartTime"`
	DefaultEndTime     *string  `json:"defaultEndTime"`
	SessionCount       int      `json:"sessionCount" validate:"required,min=1"`
	MinParticipants    int      `json:"minParticipants" validate:"required,min=1"`
	MaxParticipants    int      `json:"maxParticipants" validate:"required,gtefield=MinParticipants"`
	Price              string   `json:"price" validate:"required"`
	RequiresTechnician bool     `json:"requiresTechnician"`
	AllowedLocationIDs []string `json:"allowedLocationIds"`
	PrerequisiteIDs    []string `json:"prerequisiteIds"`
}

// UpdateWorkshopTypeRequest mutates offering fields; nil means untouched.
type UpdateWorkshopTypeRequest struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	SessionCount       *int     `json:"sessionCount" validate:"omitempty,min=1"`
	MinParticipants    *int     `json:"minParticipants" validate:"omitempty,min=1"`
	MaxParticipants    *int     `json:"maxParticipants" validate:"omitempty,min=1"`
	Price              *string  `json:"price"`
	RequiresTechnician *bool    `json:"requiresTechnician"`
	Active             *bool    `json:"active"`
	AllowedLocationIDs []string `json:"allowedLocationIds"`
	PrerequisiteIDs    []string `json:"prerequisiteIds"`
}

// UpsertSettingRequest stores one tunable as raw JSON.
type UpsertSettingRequest struct {
	Key      string `json:"key" validate:"required,max=100"`
	Value    any    `json:"value" validate:"required"`
	Category string `json:"category" validate:"required,max=50"`
	Label    string `json:"label" validate:"required,max=255"`
}
