package models

import "time"

// PersonType distinguishes staff categories.
type PersonType string

const (
	PersonInstructor         PersonType = "INSTRUCTOR"
	PersonExternalInstructor PersonType = "EXTERNAL_INSTRUCTOR"
	PersonTechnician         PersonType = "TECHNICIAN"
)

// IsInstructor reports whether the type may hold instructor roles.
func (t PersonType) IsInstructor() bool {
	return t == PersonInstructor || t == PersonExternalInstructor
}

// Person is an instructor or technician in the staffing pool.
type Person struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               *string    `db:"email" json:"email,omitempty"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	Type                PersonType `db:"type" json:"type"`
	MaxDaysPerWeek      *int       `db:"max_days_per_week" json:"max_days_per_week,omitempty"`
	PreferredLocationID *string    `db:"preferred_location_id" json:"preferred_location_id,omitempty"`
	Active              bool       `db:"active" json:"active"`
	Notes               *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// PersonRef is the compact representation used in advisory results.
type PersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PersonFilter captures listing options for persons.
type PersonFilter struct {
	Type     *PersonType
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
