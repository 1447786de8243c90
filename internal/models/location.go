package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Location is a venue where workshops take place. OperatingDays holds
// lower-case weekday names ("monday".."sunday") the venue is open on.
type Location struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Address       string         `db:"address" json:"address"`
	OperatingDays pq.StringArray `db:"operating_days" json:"operating_days"`
	CalendarID    *string        `db:"calendar_id" json:"calendar_id,omitempty"`
	Active        bool           `db:"active" json:"active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// OperatesOn reports whether the venue is open on the given weekday.
func (l *Location) OperatesOn(day time.Weekday) bool {
	name := strings.ToLower(day.String())
	for _, d := range l.OperatingDays {
		if strings.ToLower(d) == name {
			return true
		}
	}
	return false
}

// LocationFilter captures listing options for locations.
type LocationFilter struct {
	Active   *bool
	Page     int
	PageSize int
}
