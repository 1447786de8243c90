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

const workshopTypeColumns = "id, code, name, description, duration_type, default_start_time, default_end_time, session_count, min_participants, max_participants, price, requires_technician, active, sort_order, created_at, updated_at"

// WorkshopTypeRepository provides persistence for the format catalog.
type WorkshopTypeRepository struct {
	db *sqlx.DB
}

// NewWorkshopTypeRepository creates a new workshop type repository.
func NewWorkshopTypeRepository(db *sqlx.DB) *WorkshopTypeRepository {
	return &WorkshopTypeRepository{db: db}
}

// List returns workshop types with optional filtering and pagination.
func (r *WorkshopTypeRepository) List(ctx context.Context, filter models.WorkshopTypeFilter) ([]models.WorkshopType, int, error) {
	base := "FROM workshop_types WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.DurationType != "" {
		conditions = append(conditions, fmt.Sprintf("duration_type = $%d", len(args)+1))
		args = append(args, filter.DurationType)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", workshopTypeColumns, base, size, offset)
	var types []models.WorkshopType
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workshop types: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workshop types: %w", err)
	}

	return types, total, nil
}

// ListActive returns all active workshop types ordered by code.
func (r *WorkshopTypeRepository) ListActive(ctx context.Context) ([]models.WorkshopType, error) {
	query := fmt.Sprintf("SELECT %s FROM workshop_types WHERE active = TRUE ORDER BY sort_order ASC, code ASC", workshopTypeColumns)
	var types []models.WorkshopType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list active workshop types: %w", err)
	}
	return types, nil
}

// FindByID loads a workshop type by id.
func (r *WorkshopTypeRepository) FindByID(ctx context.Context, id string) (*models.WorkshopType, error) {
	query := fmt.Sprintf("SELECT %s FROM workshop_types WHERE id = $1", workshopTypeColumns)
	var wt models.WorkshopType
	if err := r.db.GetContext(ctx, &wt, query, id); err != nil {
		return nil, err
	}
	return &wt, nil
}

// FindByCode loads a workshop type by its unique code.
func (r *WorkshopTypeRepository) FindByCode(ctx context.Context, code string) (*models.WorkshopType, error) {
	query := fmt.Sprintf("SELECT %s FROM workshop_types WHERE code = $1", workshopTypeColumns)
	var wt models.WorkshopType
	if err := r.db.GetContext(ctx, &wt, query, code); err != nil {
		return nil, err
	}
	return &wt, nil
}

// Create stores a new workshop type.
func (r *WorkshopTypeRepository) Create(ctx context.Context, wt *models.WorkshopType) error {
	if wt.ID == "" {
		wt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	wt.CreatedAt = now
	wt.UpdatedAt = now

	const query = `INSERT INTO workshop_types (id, code, name, description, duration_type, default_start_time, default_end_time, session_count, min_participants, max_participants, price, requires_technician, active, sort_order, created_at, updated_at) VALUES (:id, :code, :name, :description, :duration_type, :default_start_time, :default_end_time, :session_count, :min_participants, :max_participants, :price, :requires_technician, :active, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, wt); err != nil {
		return fmt.Errorf("create workshop type: %w", err)
	}
	return nil
}

// Update modifies a workshop type record.
func (r *WorkshopTypeRepository) Update(ctx context.Context, wt *models.WorkshopType) error {
	wt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE workshop_types SET name = :name, description = :description, duration_type = :duration_type, default_start_time = :default_start_time, default_end_time = :default_end_time, session_count = :session_count, min_participants = :min_participants, max_participants = :max_participants, price = :price, requires_technician = :requires_technician, active = :active, sort_order = :sort_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, wt); err != nil {
		return fmt.Errorf("update workshop type: %w", err)
	}
	return nil
}

// IsLocationAllowed reports whether the type's venue allow-list contains
// the given location.
func (r *WorkshopTypeRepository) IsLocationAllowed(ctx context.Context, typeID, locationID string) (bool, error) {
	var allowed int
	if err := r.db.GetContext(ctx, &allowed, "SELECT COUNT(*) FROM type_allowed_locations WHERE workshop_type_id = $1 AND location_id = $2", typeID, locationID); err != nil {
		return false, fmt.Errorf("check allowed location: %w", err)
	}
	return allowed > 0, nil
}

// AllowedLocationIDs returns the venue allow-list for a type.
func (r *WorkshopTypeRepository) AllowedLocationIDs(ctx context.Context, typeID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT location_id FROM type_allowed_locations WHERE workshop_type_id = $1", typeID); err != nil {
		return nil, fmt.Errorf("list allowed locations: %w", err)
	}
	return ids, nil
}

// SetAllowedLocations replaces the venue allow-list for a type.
func (r *WorkshopTypeRepository) SetAllowedLocations(ctx context.Context, typeID string, locationIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM type_allowed_locations WHERE workshop_type_id = $1", typeID); err != nil {
		return fmt.Errorf("clear allowed locations: %w", err)
	}
	for _, locID := range locationIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO type_allowed_locations (workshop_type_id, location_id) VALUES ($1, $2)", typeID, locID); err != nil {
			return fmt.Errorf("insert allowed location: %w", err)
		}
	}
	return tx.Commit()
}

// IsPersonQualified reports whether a person is qualified to lead the type.
func (r *WorkshopTypeRepository) IsPersonQualified(ctx context.Context, typeID, personID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM person_qualifications WHERE workshop_type_id = $1 AND person_id = $2", typeID, personID); err != nil {
		return false, fmt.Errorf("check qualification: %w", err)
	}
	return count > 0, nil
}

// QualifiedPersonIDs returns ids of people qualified for the type.
func (r *WorkshopTypeRepository) QualifiedPersonIDs(ctx context.Context, typeID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT person_id FROM person_qualifications WHERE workshop_type_id = $1", typeID); err != nil {
		return nil, fmt.Errorf("list qualified people: %w", err)
	}
	return ids, nil
}

// Prerequisites returns the prerequisite rules configured for a type.
func (r *WorkshopTypeRepository) Prerequisites(ctx context.Context, typeID string) ([]models.TypePrerequisite, error) {
	const query = `SELECT id, workshop_type_id, prerequisite_type_id, required FROM type_prerequisites WHERE workshop_type_id = $1`
	var prereqs []models.TypePrerequisite
	if err := r.db.SelectContext(ctx, &prereqs, query, typeID); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return prereqs, nil
}

// SetPrerequisites replaces the prerequisite rules for a type.
func (r *WorkshopTypeRepository) SetPrerequisites(ctx context.Context, typeID string, prerequisiteTypeIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM type_prerequisites WHERE workshop_type_id = $1", typeID); err != nil {
		return fmt.Errorf("clear prerequisites: %w", err)
	}
	for _, prereqID := range prerequisiteTypeIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO type_prerequisites (id, workshop_type_id, prerequisite_type_id, required) VALUES ($1, $2, $3, true)",
			uuid.NewString(), typeID, prereqID,
		); err != nil {
			return fmt.Errorf("insert prerequisite: %w", err)
		}
	}
	return tx.Commit()
}
