package models

import (
	"fmt"
	"time"
)

// WorkshopStatus tracks the lifecycle of a planned workshop.
type WorkshopStatus string

const (
	WorkshopDraft     WorkshopStatus = "DRAFT"
	WorkshopPublished WorkshopStatus = "PUBLISHED"
	WorkshopConfirmed WorkshopStatus = "CONFIRMED"
	WorkshopCompleted WorkshopStatus = "COMPLETED"
	WorkshopCancelled WorkshopStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s WorkshopStatus) Terminal() bool {
	return s == WorkshopCompleted || s == WorkshopCancelled
}

// Workshop is one scheduled instance of a workshop type at a location.
type Workshop struct {
	ID                  string         `db:"id" json:"id"`
	DisplayID           int            `db:"display_id" json:"display_id"`
	TypeID              string         `db:"type_id" json:"type_id"`
	LocationID          string         `db:"location_id" json:"location_id"`
	StartDate           time.Time      `db:"start_date" json:"start_date"`
	EndDate             *time.Time     `db:"end_date" json:"end_date,omitempty"`
	Status              WorkshopStatus `db:"status" json:"status"`
	CurrentParticipants int            `db:"current_participants" json:"current_participants"`
	CalendarEventID     *string        `db:"calendar_event_id" json:"calendar_event_id,omitempty"`
	Notes               *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// DisplayCode builds the human-facing code, e.g. IWS_192_U.
func DisplayCode(typeCode string, displayID int, locationCode string) string {
	suffix := locationCode
	if len(locationCode) > 0 {
		suffix = locationCode[:1]
	}
	return fmt.Sprintf("%s_%d_%s", typeCode, displayID, suffix)
}

// WorkshopSession is one dated meeting within a workshop.
type WorkshopSession struct {
	ID                 string    `db:"id" json:"id"`
	WorkshopID         string    `db:"workshop_id" json:"workshop_id"`
	SessionNumber      int       `db:"session_number" json:"session_number"`
	Date               time.Time `db:"date" json:"date"`
	StartTime          string    `db:"start_time" json:"start_time"`
	EndTime            string    `db:"end_time" json:"end_time"`
	RequiresTechnician bool      `db:"requires_technician" json:"requires_technician"`
	Notes              *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// WorkshopDetail is a workshop eager-loaded with its type, location, sessions
// and assignments, as needed by period validation and revenue reporting.
type WorkshopDetail struct {
	Workshop
	Type        WorkshopType      `json:"type"`
	Location    Location          `json:"location"`
	Sessions    []WorkshopSession `json:"sessions"`
	Assignments []Assignment      `json:"assignments"`
}

// WorkshopFilter captures listing options for workshops.
type WorkshopFilter struct {
	TypeID     string
	LocationID string
	Status     *WorkshopStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
