package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/planner-api/internal/models"
)

const availabilityColumns = "id, person_id, type, start_date, end_date, reason, created_at, updated_at"

// AvailabilityRepository provides persistence for availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// FindByID loads an availability window by id.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.Availability, error) {
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE id = $1", availabilityColumns)
	var a models.Availability
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByPerson returns a person's availability windows ordered by start.
func (r *AvailabilityRepository) ListByPerson(ctx context.Context, personID string) ([]models.Availability, error) {
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE person_id = $1 ORDER BY start_date ASC", availabilityColumns)
	var windows []models.Availability
	if err := r.db.SelectContext(ctx, &windows, query, personID); err != nil {
		return nil, fmt.Errorf("list availability by person: %w", err)
	}
	return windows, nil
}

// ListByPersonAndRange returns a person's windows overlapping the period.
func (r *AvailabilityRepository) ListByPersonAndRange(ctx context.Context, personID string, from, to time.Time) ([]models.Availability, error) {
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE person_id = $1 AND start_date <= $2 AND end_date >= $3 ORDER BY start_date ASC", availabilityColumns)
	var windows []models.Availability
	if err := r.db.SelectContext(ctx, &windows, query, to, from); err != nil {
		return nil, fmt.Errorf("list availability by range: %w", err)
	}
	return windows, nil
}

// FindBlocking returns UNAVAILABLE windows of the person covering any of
// the given dates.
func (r *AvailabilityRepository) FindBlocking(ctx context.Context, personID string, dates []time.Time) ([]models.Availability, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE person_id = $1 AND type = 'UNAVAILABLE' AND start_date <= $2 AND end_date >= $3 ORDER BY start_date ASC", availabilityColumns)
	var candidates []models.Availability
	if err := r.db.SelectContext(ctx, &candidates, query, personID, max, min); err != nil {
		return nil, fmt.Errorf("find blocking availability: %w", err)
	}

	var blocking []models.Availability
	for _, window := range candidates {
		for _, d := range dates {
			if window.Covers(d) {
				blocking = append(blocking, window)
				break
			}
		}
	}
	return blocking, nil
}

// MapByPersonAndRange loads all windows overlapping the period, grouped by
// person id. Used by slot search to avoid per-person queries.
func (r *AvailabilityRepository) MapByPersonAndRange(ctx context.Context, from, to time.Time) (map[string][]models.Availability, error) {
	query := fmt.Sprintf("SELECT %s FROM availabilities WHERE start_date <= $1 AND end_date >= $2 ORDER BY start_date ASC", availabilityColumns)
	var windows []models.Availability
	if err := r.db.SelectContext(ctx, &windows, query, to, from); err != nil {
		return nil, fmt.Errorf("map availability by range: %w", err)
	}

	byPerson := make(map[string][]models.Availability, len(windows))
	for _, w := range windows {
		byPerson[w.PersonID] = append(byPerson[w.PersonID], w)
	}
	return byPerson, nil
}

// Create stores a new availability window.
func (r *AvailabilityRepository) Create(ctx context.Context, a *models.Availability) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	const query = `INSERT INTO availabilities (id, person_id, type, start_date, end_date, reason, created_at, updated_at) VALUES (:id, :person_id, :type, :start_date, :end_date, :reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Update modifies an availability window.
func (r *AvailabilityRepository) Update(ctx context.Context, a *models.Availability) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availabilities SET type = :type, start_date = :start_date, end_date = :end_date, reason = :reason, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

// Delete removes an availability window.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM availabilities WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
