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

const locationColumns = "id, code, name, address, operating_days, calendar_id, active, created_at, updated_at"

// LocationRepository provides persistence for venues.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository creates a new location repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns locations with optional filtering and pagination.
func (r *LocationRepository) List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error) {
	base := "FROM locations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", locationColumns, base, size, offset)
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count locations: %w", err)
	}

	return locations, total, nil
}

// ListActive returns all active venues ordered by code.
func (r *LocationRepository) ListActive(ctx context.Context) ([]models.Location, error) {
	query := fmt.Sprintf("SELECT %s FROM locations WHERE active = TRUE ORDER BY code ASC", locationColumns)
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list active locations: %w", err)
	}
	return locations, nil
}

// FindByID loads a location by id.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.Location, error) {
	query := fmt.Sprintf("SELECT %s FROM locations WHERE id = $1", locationColumns)
	var loc models.Location
	if err := r.db.GetContext(ctx, &loc, query, id); err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindByCode loads a location by its unique code.
func (r *LocationRepository) FindByCode(ctx context.Context, code string) (*models.Location, error) {
	query := fmt.Sprintf("SELECT %s FROM locations WHERE code = $1", locationColumns)
	var loc models.Location
	if err := r.db.GetContext(ctx, &loc, query, code); err != nil {
		return nil, err
	}
	return &loc, nil
}

// Create stores a new venue.
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	loc.CreatedAt = now
	loc.UpdatedAt = now

	const query = `INSERT INTO locations (id, code, name, address, operating_days, calendar_id, active, created_at, updated_at) VALUES (:id, :code, :name, :address, :operating_days, :calendar_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, loc); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update modifies a venue record.
func (r *LocationRepository) Update(ctx context.Context, loc *models.Location) error {
	loc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE locations SET name = :name, address = :address, operating_days = :operating_days, calendar_id = :calendar_id, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, loc); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}
