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

const personColumns = "id, name, email, phone, type, max_days_per_week, preferred_location_id, active, notes, created_at, updated_at"

// PersonRepository provides persistence for team members.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository creates a new person repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// List returns people with optional filtering and pagination.
func (r *PersonRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	base := "FROM people WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", personColumns, base, size, offset)
	var people []models.Person
	if err := r.db.SelectContext(ctx, &people, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list people: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count people: %w", err)
	}

	return people, total, nil
}

// FindByID loads a person by id.
func (r *PersonRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	query := fmt.Sprintf("SELECT %s FROM people WHERE id = $1", personColumns)
	var p models.Person
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveInstructors returns all active instructors and external
// instructors ordered by name.
func (r *PersonRepository) ListActiveInstructors(ctx context.Context) ([]models.Person, error) {
	query := fmt.Sprintf("SELECT %s FROM people WHERE active = TRUE AND type IN ('INSTRUCTOR', 'EXTERNAL_INSTRUCTOR') ORDER BY name ASC", personColumns)
	var people []models.Person
	if err := r.db.SelectContext(ctx, &people, query); err != nil {
		return nil, fmt.Errorf("list active instructors: %w", err)
	}
	return people, nil
}

// Create stores a new person.
func (r *PersonRepository) Create(ctx context.Context, p *models.Person) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const query = `INSERT INTO people (id, name, email, phone, type, max_days_per_week, preferred_location_id, active, notes, created_at, updated_at) VALUES (:id, :name, :email, :phone, :type, :max_days_per_week, :preferred_location_id, :active, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// Update modifies a person record.
func (r *PersonRepository) Update(ctx context.Context, p *models.Person) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE people SET name = :name, email = :email, phone = :phone, type = :type, max_days_per_week = :max_days_per_week, preferred_location_id = :preferred_location_id, active = :active, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return nil
}

// SetQualifications replaces the set of workshop types a person may lead.
func (r *PersonRepository) SetQualifications(ctx context.Context, personID string, typeIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM person_qualifications WHERE person_id = $1", personID); err != nil {
		return fmt.Errorf("clear qualifications: %w", err)
	}
	for _, typeID := range typeIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO person_qualifications (person_id, workshop_type_id) VALUES ($1, $2)", personID, typeID); err != nil {
			return fmt.Errorf("insert qualification: %w", err)
		}
	}
	return tx.Commit()
}

// QualificationTypeIDs returns the workshop type ids a person is qualified
// to lead.
func (r *PersonRepository) QualificationTypeIDs(ctx context.Context, personID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT workshop_type_id FROM person_qualifications WHERE person_id = $1", personID); err != nil {
		return nil, fmt.Errorf("list qualifications: %w", err)
	}
	return ids, nil
}
