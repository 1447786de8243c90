package models

import "time"

// LocationRef is the compact location representation used in advisory results.
type LocationRef struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Slot is a candidate (date, location) pair not yet committed as a workshop.
type Slot struct {
	Date                 time.Time   `json:"date"`
	Day                  string      `json:"day"`
	Location             LocationRef `json:"location"`
	AvailableInstructors []PersonRef `json:"available_instructors"`
	Score                float64     `json:"score"`
}
