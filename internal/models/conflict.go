package models

import "time"

// Conflict types reported by the post-hoc scanner.
const (
	ConflictLocation = "location_conflict"
	ConflictPerson   = "person_conflict"
)

// Conflict is one double-booking found in a persisted date range. Exactly one
// of LocationID / PersonID is set depending on Type.
type Conflict struct {
	Type       string    `json:"type"`
	LocationID string    `json:"location_id,omitempty"`
	PersonID   string    `json:"person_id,omitempty"`
	Date       time.Time `json:"date"`
	Count      int       `json:"count"`
	Message    string    `json:"message"`
}

// LocationConflictRow is the aggregation row for venue double-bookings.
type LocationConflictRow struct {
	LocationID string    `db:"location_id"`
	StartDate  time.Time `db:"start_date"`
	Count      int       `db:"count"`
}

// PersonConflictRow is the aggregation row for person double-bookings.
type PersonConflictRow struct {
	PersonID  string    `db:"person_id"`
	StartDate time.Time `db:"start_date"`
	Count     int       `db:"count"`
}

// LocationBusyDate marks a venue as occupied on a start date. Used by slot
// search to skim occupancy for a whole period in one query.
type LocationBusyDate struct {
	LocationID string    `db:"location_id"`
	StartDate  time.Time `db:"start_date"`
}

// PersonBusyDate marks a person as booked on a start date.
type PersonBusyDate struct {
	PersonID  string    `db:"person_id"`
	StartDate time.Time `db:"start_date"`
}
