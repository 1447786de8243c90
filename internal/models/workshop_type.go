package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DurationType categorises how a workshop type is spread over time.
type DurationType string

const (
	DurationEveningSeries DurationType = "EVENING_SERIES"
	DurationMultiDay      DurationType = "MULTI_DAY"
	DurationSingleDay     DurationType = "SINGLE_DAY"
	DurationHalfDay       DurationType = "HALF_DAY"
	DurationSingleSession DurationType = "SINGLE_SESSION"
)

// WorkshopType is the reusable course definition: pricing, capacity bounds and
// qualification requirements. Allowed locations, qualified instructors and
// prerequisites live in join tables and are resolved through the repository.
type WorkshopType struct {
	ID                 string          `db:"id" json:"id"`
	Code               string          `db:"code" json:"code"`
	Name               string          `db:"name" json:"name"`
	Description        *string         `db:"description" json:"description,omitempty"`
	DurationType       DurationType    `db:"duration_type" json:"duration_type"`
	DefaultStartTime   *string         `db:"default_start_time" json:"default_start_time,omitempty"`
	DefaultEndTime     *string         `db:"default_end_time" json:"default_end_time,omitempty"`
	SessionCount       int             `db:"session_count" json:"session_count"`
	MinParticipants    int             `db:"min_participants" json:"min_participants"`
	MaxParticipants    int             `db:"max_participants" json:"max_participants"`
	Price              decimal.Decimal `db:"price" json:"price"`
	RequiresTechnician bool            `db:"requires_technician" json:"requires_technician"`
	Active             bool            `db:"active" json:"active"`
	SortOrder          int             `db:"sort_order" json:"sort_order"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// WorkshopTypeRef is the compact representation used in advisory results.
type WorkshopTypeRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// TypePrerequisite links a workshop type to one of its prerequisite types.
type TypePrerequisite struct {
	ID                 string `db:"id" json:"id"`
	WorkshopTypeID     string `db:"workshop_type_id" json:"workshop_type_id"`
	PrerequisiteTypeID string `db:"prerequisite_type_id" json:"prerequisite_type_id"`
	Required           bool   `db:"required" json:"required"`
}

// WorkshopTypeFilter captures listing options for workshop types.
type WorkshopTypeFilter struct {
	Active       *bool
	DurationType DurationType
	Page         int
	PageSize     int
}
