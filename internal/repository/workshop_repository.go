package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/planner-api/internal/models"
)

const workshopColumns = "id, display_id, type_id, location_id, start_date, end_date, status, current_participants, calendar_event_id, notes, created_at, updated_at"

const sessionColumns = "id, workshop_id, session_number, date, start_time, end_time, requires_technician, notes, created_at, updated_at"

// WorkshopRepository provides persistence for planned workshop runs.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository creates a new workshop repository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// List returns workshops with optional filtering and pagination.
func (r *WorkshopRepository) List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error) {
	base := "FROM workshops WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TypeID != "" {
		conditions = append(conditions, fmt.Sprintf("type_id = $%d", len(args)+1))
		args = append(args, filter.TypeID)
	}
	if filter.LocationID != "" {
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY start_date ASC, display_id ASC LIMIT %d OFFSET %d", workshopColumns, base, size, offset)
	var workshops []models.Workshop
	if err := r.db.SelectContext(ctx, &workshops, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workshops: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workshops: %w", err)
	}

	return workshops, total, nil
}

// FindByID loads a workshop by id.
func (r *WorkshopRepository) FindByID(ctx context.Context, id string) (*models.Workshop, error) {
	query := fmt.Sprintf("SELECT %s FROM workshops WHERE id = $1", workshopColumns)
	var w models.Workshop
	if err := r.db.GetContext(ctx, &w, query, id); err != nil {
		return nil, err
	}
	return &w, nil
}

// FindDetailByID loads a workshop with its type, venue, sessions and
// assignments eagerly attached.
func (r *WorkshopRepository) FindDetailByID(ctx context.Context, id string) (*models.WorkshopDetail, error) {
	w, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.loadDetail(ctx, w)
}

func (r *WorkshopRepository) loadDetail(ctx context.Context, w *models.Workshop) (*models.WorkshopDetail, error) {
	detail := &models.WorkshopDetail{Workshop: *w}

	const typeQuery = `SELECT id, code, name, duration_type, session_count, min_participants, max_participants, price, requires_technician, active, created_at, updated_at FROM workshop_types WHERE id = $1`
	if err := r.db.GetContext(ctx, &detail.Type, typeQuery, w.TypeID); err != nil {
		return nil, fmt.Errorf("load workshop type: %w", err)
	}

	const locQuery = `SELECT id, code, name, operating_days, active, created_at, updated_at FROM locations WHERE id = $1`
	if err := r.db.GetContext(ctx, &detail.Location, locQuery, w.LocationID); err != nil {
		return nil, fmt.Errorf("load workshop location: %w", err)
	}

	sessions, err := r.Sessions(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	detail.Sessions = sessions

	const asgQuery = `SELECT id, workshop_id, session_id, person_id, role, status, confirmed_at, notes, created_at, updated_at FROM assignments WHERE workshop_id = $1 AND status <> 'DECLINED' ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &detail.Assignments, asgQuery, w.ID); err != nil {
		return nil, fmt.Errorf("load workshop assignments: %w", err)
	}

	return detail, nil
}

// Sessions returns the dated meetings of a workshop in order.
func (r *WorkshopRepository) Sessions(ctx context.Context, workshopID string) ([]models.WorkshopSession, error) {
	query := fmt.Sprintf("SELECT %s FROM workshop_sessions WHERE workshop_id = $1 ORDER BY session_number ASC", sessionColumns)
	var sessions []models.WorkshopSession
	if err := r.db.SelectContext(ctx, &sessions, query, workshopID); err != nil {
		return nil, fmt.Errorf("load workshop sessions: %w", err)
	}
	return sessions, nil
}

// Create stores a workshop together with its sessions in one transaction,
// assigning the next sequential display id.
func (r *WorkshopRepository) Create(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	if err := tx.GetContext(ctx, &w.DisplayID, "SELECT COALESCE(MAX(display_id), 0) + 1 FROM workshops"); err != nil {
		return fmt.Errorf("next display id: %w", err)
	}

	const insert = `INSERT INTO workshops (id, display_id, type_id, location_id, start_date, end_date, status, current_participants, calendar_event_id, notes, created_at, updated_at) VALUES (:id, :display_id, :type_id, :location_id, :start_date, :end_date, :status, :current_participants, :calendar_event_id, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, w); err != nil {
		return fmt.Errorf("create workshop: %w", err)
	}

	if err := insertSessions(ctx, tx, w.ID, sessions, now); err != nil {
		return err
	}

	return tx.Commit()
}

// Update modifies a workshop and, when sessions is non-nil, replaces its
// sessions.
func (r *WorkshopRepository) Update(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	w.UpdatedAt = now
	const update = `UPDATE workshops SET location_id = :location_id, start_date = :start_date, end_date = :end_date, status = :status, current_participants = :current_participants, calendar_event_id = :calendar_event_id, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, w); err != nil {
		return fmt.Errorf("update workshop: %w", err)
	}

	if sessions != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM workshop_sessions WHERE workshop_id = $1", w.ID); err != nil {
			return fmt.Errorf("clear workshop sessions: %w", err)
		}
		if err := insertSessions(ctx, tx, w.ID, sessions, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertSessions(ctx context.Context, tx *sqlx.Tx, workshopID string, sessions []models.WorkshopSession, now time.Time) error {
	for i := range sessions {
		s := &sessions[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.WorkshopID = workshopID
		if s.SessionNumber == 0 {
			s.SessionNumber = i + 1
		}
		s.CreatedAt = now
		s.UpdatedAt = now

		const insert = `INSERT INTO workshop_sessions (id, workshop_id, session_number, date, start_time, end_time, requires_technician, notes, created_at, updated_at) VALUES (:id, :workshop_id, :session_number, :date, :start_time, :end_time, :requires_technician, :notes, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, s); err != nil {
			return fmt.Errorf("create workshop session: %w", err)
		}
	}
	return nil
}

// UpdateStatus transitions the workshop lifecycle state.
func (r *WorkshopRepository) UpdateStatus(ctx context.Context, id string, status models.WorkshopStatus) error {
	const query = `UPDATE workshops SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update workshop status: %w", err)
	}
	return nil
}

// ExistsAt reports whether a non-cancelled workshop already occupies the
// venue on the given start date.
func (r *WorkshopRepository) ExistsAt(ctx context.Context, locationID string, date time.Time, excludeWorkshopID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM workshops WHERE location_id = $1 AND start_date = $2 AND status <> 'CANCELLED' AND id <> $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, locationID, date, excludeWorkshopID); err != nil {
		return false, fmt.Errorf("check venue occupancy: %w", err)
	}
	return count > 0, nil
}

// ListDetailsByRange loads non-cancelled workshops starting in the period,
// with type, venue, sessions and assignments attached.
func (r *WorkshopRepository) ListDetailsByRange(ctx context.Context, from, to time.Time) ([]models.WorkshopDetail, error) {
	query := fmt.Sprintf("SELECT %s FROM workshops WHERE status <> 'CANCELLED' AND start_date >= $1 AND start_date <= $2 ORDER BY start_date ASC, display_id ASC", workshopColumns)
	var workshops []models.Workshop
	if err := r.db.SelectContext(ctx, &workshops, query, from, to); err != nil {
		return nil, fmt.Errorf("list workshops by range: %w", err)
	}

	details := make([]models.WorkshopDetail, 0, len(workshops))
	for i := range workshops {
		detail, err := r.loadDetail(ctx, &workshops[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// ListDetailsByStatuses loads workshops in any of the given statuses with
// their type and venue attached, optionally bounded by start date.
func (r *WorkshopRepository) ListDetailsByStatuses(ctx context.Context, statuses []models.WorkshopStatus, from, to *time.Time) ([]models.WorkshopDetail, error) {
	base := fmt.Sprintf("SELECT %s FROM workshops WHERE status IN (?)", workshopColumns)
	args := []interface{}{statuses}
	if from != nil {
		base += " AND start_date >= ?"
		args = append(args, *from)
	}
	if to != nil {
		base += " AND start_date <= ?"
		args = append(args, *to)
	}
	base += " ORDER BY start_date ASC, display_id ASC"

	query, inArgs, err := sqlx.In(base, args...)
	if err != nil {
		return nil, fmt.Errorf("build status query: %w", err)
	}
	query = r.db.Rebind(query)

	var workshops []models.Workshop
	if err := r.db.SelectContext(ctx, &workshops, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list workshops by status: %w", err)
	}

	details := make([]models.WorkshopDetail, 0, len(workshops))
	for i := range workshops {
		detail, err := r.loadDetail(ctx, &workshops[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// OccupiedDates returns every (venue, start date) pair taken by a
// non-cancelled workshop inside the period.
func (r *WorkshopRepository) OccupiedDates(ctx context.Context, from, to time.Time) ([]models.LocationBusyDate, error) {
	const query = `SELECT DISTINCT location_id, start_date FROM workshops WHERE status <> 'CANCELLED' AND start_date >= $1 AND start_date <= $2`
	var rows []models.LocationBusyDate
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("list occupied dates: %w", err)
	}
	return rows, nil
}

// LocationConflicts aggregates (venue, start date) pairs booked by more
// than one non-cancelled workshop inside the period.
func (r *WorkshopRepository) LocationConflicts(ctx context.Context, from, to time.Time) ([]models.LocationConflictRow, error) {
	const query = `SELECT location_id, start_date, COUNT(id) AS count
FROM workshops
WHERE status <> 'CANCELLED' AND start_date >= $1 AND start_date <= $2
GROUP BY location_id, start_date
HAVING COUNT(id) > 1
ORDER BY start_date ASC, location_id ASC`
	var rows []models.LocationConflictRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("aggregate location conflicts: %w", err)
	}
	return rows, nil
}

// CountByTypeAndYear counts non-cancelled workshops of a type starting in
// the given calendar year.
func (r *WorkshopRepository) CountByTypeAndYear(ctx context.Context, typeID string, year int) (int, error) {
	const query = `SELECT COUNT(*) FROM workshops WHERE type_id = $1 AND status <> 'CANCELLED' AND EXTRACT(YEAR FROM start_date) = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, typeID, year); err != nil {
		return 0, fmt.Errorf("count workshops by type and year: %w", err)
	}
	return count, nil
}
