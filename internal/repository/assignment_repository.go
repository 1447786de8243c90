package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/planner-api/internal/models"
)

const assignmentColumns = "id, workshop_id, session_id, person_id, role, status, confirmed_at, notes, created_at, updated_at"

// AssignmentRepository provides persistence for staffing assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// FindByID loads an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentColumns)
	var a models.Assignment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByWorkshop returns the assignments for one workshop.
func (r *AssignmentRepository) ListByWorkshop(ctx context.Context, workshopID string) ([]models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE workshop_id = $1 ORDER BY created_at ASC", assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, workshopID); err != nil {
		return nil, fmt.Errorf("list assignments by workshop: %w", err)
	}
	return assignments, nil
}

// ListByPerson returns a person's assignments joined with workshop context,
// newest workshop first.
func (r *AssignmentRepository) ListByPerson(ctx context.Context, personID string) ([]models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.workshop_id, a.session_id, a.person_id, a.role, a.status, a.confirmed_at, a.notes, a.created_at, a.updated_at, w.start_date AS workshop_start_date, w.status AS workshop_status, t.duration_type AS type_duration_type
FROM assignments a
JOIN workshops w ON w.id = a.workshop_id
JOIN workshop_types t ON t.id = w.type_id
WHERE a.person_id = $1
ORDER BY w.start_date DESC`
	var details []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &details, query, personID); err != nil {
		return nil, fmt.Errorf("list assignments by person: %w", err)
	}
	return details, nil
}

// Exists reports whether the person already holds a non-declined assignment
// on the workshop.
func (r *AssignmentRepository) Exists(ctx context.Context, workshopID, personID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE workshop_id = $1 AND person_id = $2 AND status <> 'DECLINED'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, workshopID, personID); err != nil {
		return false, fmt.Errorf("check assignment exists: %w", err)
	}
	return count > 0, nil
}

// Create stores a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	const query = `INSERT INTO assignments (id, workshop_id, session_id, person_id, role, status, confirmed_at, notes, created_at, updated_at) VALUES (:id, :workshop_id, :session_id, :person_id, :role, :status, :confirmed_at, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// UpdateStatus changes an assignment's confirmation state, stamping
// confirmed_at on confirmation.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	now := time.Now().UTC()
	if status == models.AssignmentConfirmed {
		const query = `UPDATE assignments SET status = $1, confirmed_at = $2, updated_at = $2 WHERE id = $3`
		if _, err := r.db.ExecContext(ctx, query, status, now, id); err != nil {
			return fmt.Errorf("update assignment status: %w", err)
		}
		return nil
	}
	const query = `UPDATE assignments SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, now, id); err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// CountByPersonOnDate counts the person's non-declined assignments on
// other non-cancelled workshops starting on the given date.
func (r *AssignmentRepository) CountByPersonOnDate(ctx context.Context, personID string, date time.Time, excludeWorkshopID string) (int, error) {
	const query = `SELECT COUNT(a.id)
FROM assignments a
JOIN workshops w ON w.id = a.workshop_id
WHERE a.person_id = $1 AND a.status <> 'DECLINED' AND w.status <> 'CANCELLED' AND w.start_date = $2 AND w.id <> $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, personID, date, excludeWorkshopID); err != nil {
		return 0, fmt.Errorf("count assignments on date: %w", err)
	}
	return count, nil
}

// CountByPersonInRange counts the person's non-declined assignments whose
// non-cancelled workshop starts inside [from, to]. Used both for the weekly
// cap check and for capacity reporting.
func (r *AssignmentRepository) CountByPersonInRange(ctx context.Context, personID string, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(a.id)
FROM assignments a
JOIN workshops w ON w.id = a.workshop_id
WHERE a.person_id = $1 AND a.status <> 'DECLINED' AND w.status <> 'CANCELLED' AND w.start_date >= $2 AND w.start_date <= $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, personID, from, to); err != nil {
		return 0, fmt.Errorf("count assignments in range: %w", err)
	}
	return count, nil
}

// HasMultiDayOnDate reports whether the person is assigned to a
// multi-day-format workshop starting on the given date.
func (r *AssignmentRepository) HasMultiDayOnDate(ctx context.Context, personID string, date time.Time) (bool, error) {
	const query = `SELECT COUNT(a.id)
FROM assignments a
JOIN workshops w ON w.id = a.workshop_id
JOIN workshop_types t ON t.id = w.type_id
WHERE a.person_id = $1 AND a.status <> 'DECLINED' AND w.status <> 'CANCELLED' AND w.start_date = $2 AND t.duration_type = 'MULTI_DAY'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, personID, date); err != nil {
		return false, fmt.Errorf("check multi-day assignment: %w", err)
	}
	return count > 0, nil
}

// HasAnyOnDate reports whether the person holds any non-declined assignment
// on a non-cancelled workshop starting on the given date.
func (r *AssignmentRepository) HasAnyOnDate(ctx context.Context, personID string, date time.Time) (bool, error) {
	count, err := r.CountByPersonOnDate(ctx, personID, date, "")
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BusyDates returns every (person, start date) pair booked by a
// non-declined assignment on a non-cancelled workshop inside the period.
func (r *AssignmentRepository) BusyDates(ctx context.Context, from, to time.Time) ([]models.PersonBusyDate, error) {
	const query = `SELECT DISTINCT a.person_id, w.start_date
FROM assignments a
JOIN workshops w ON w.id = a.workshop_id
WHERE a.status <> 'DECLINED' AND w.status <> 'CANCELLED' AND w.start_date >= $1 AND w.start_date <= $2`
	var rows []models.PersonBusyDate
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("list busy dates: %w", err)
	}
	return rows, nil
}

// PersonConflicts aggregates (person, start date) pairs where someone is
// staffed on more than one non-cancelled workshop inside the period.
func (r *AssignmentRepository) PersonConflicts(ctx context.Context, from, to time.Time) ([]models.PersonConflictRow, error) {
	const query = `SELECT a.person_id, w.start_date, COUNT(a.id) AS count
FROM assignments a
JOIN workshops w ON w.id = a.workshop_id
WHERE a.status <> 'DECLINED' AND w.status <> 'CANCELLED' AND w.start_date >= $1 AND w.start_date <= $2
GROUP BY a.person_id, w.start_date
HAVING COUNT(a.id) > 1
ORDER BY w.start_date ASC, a.person_id ASC`
	var rows []models.PersonConflictRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("aggregate person conflicts: %w", err)
	}
	return rows, nil
}
