package models

import "time"

// AvailabilityType classifies an availability entry. Only UNAVAILABLE entries
// are enforced as hard blocks; the others inform scoring.
type AvailabilityType string

const (
	AvailabilityAvailable   AvailabilityType = "AVAILABLE"
	AvailabilityUnavailable AvailabilityType = "UNAVAILABLE"
	AvailabilityPreferred   AvailabilityType = "PREFERRED"
)

// Availability is a person-authored statement over an inclusive date range.
type Availability struct {
	ID        string           `db:"id" json:"id"`
	PersonID  string           `db:"person_id" json:"person_id"`
	Type      AvailabilityType `db:"type" json:"type"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   time.Time        `db:"end_date" json:"end_date"`
	Reason    *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the entry's range includes the given date.
func (a *Availability) Covers(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	return !day.Before(a.StartDate.Truncate(24*time.Hour)) && !day.After(a.EndDate.Truncate(24*time.Hour))
}
