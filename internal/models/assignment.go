package models

import "time"

// AssignmentRole describes the function a person fulfils at a workshop.
type AssignmentRole string

const (
	RoleInstructor   AssignmentRole = "INSTRUCTOR"
	RoleCoInstructor AssignmentRole = "CO_INSTRUCTOR"
	RoleGuest        AssignmentRole = "GUEST"
	RoleTechnician   AssignmentRole = "TECHNICIAN"
)

// RequiresQualification reports whether the role demands the person to be in
// the workshop type's qualified-instructor set.
func (r AssignmentRole) RequiresQualification() bool {
	return r == RoleInstructor || r == RoleCoInstructor
}

// AssignmentStatus tracks confirmation of an assignment.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentConfirmed AssignmentStatus = "CONFIRMED"
	AssignmentDeclined  AssignmentStatus = "DECLINED"
)

// Assignment binds a person to a workshop (optionally one session) in a role.
type Assignment struct {
	ID          string           `db:"id" json:"id"`
	WorkshopID  string           `db:"workshop_id" json:"workshop_id"`
	SessionID   *string          `db:"session_id" json:"session_id,omitempty"`
	PersonID    string           `db:"person_id" json:"person_id"`
	Role        AssignmentRole   `db:"role" json:"role"`
	Status      AssignmentStatus `db:"status" json:"status"`
	ConfirmedAt *time.Time       `db:"confirmed_at" json:"confirmed_at,omitempty"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail joins an assignment to its workshop's planning fields.
type AssignmentDetail struct {
	Assignment
	WorkshopStartDate time.Time      `db:"workshop_start_date" json:"workshop_start_date"`
	WorkshopStatus    WorkshopStatus `db:"workshop_status" json:"workshop_status"`
	TypeDurationType  DurationType   `db:"type_duration_type" json:"type_duration_type"`
}
