package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type teamPersonRepository interface {
	List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error)
	FindByID(ctx context.Context, id string) (*models.Person, error)
	Create(ctx context.Context, p *models.Person) error
	Update(ctx context.Context, p *models.Person) error
	SetQualifications(ctx context.Context, personID string, typeIDs []string) error
	QualificationTypeIDs(ctx context.Context, personID string) ([]string, error)
}

type teamAssignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByWorkshop(ctx context.Context, workshopID string) ([]models.Assignment, error)
	ListByPerson(ctx context.Context, personID string) ([]models.AssignmentDetail, error)
	Exists(ctx context.Context, workshopID, personID string) (bool, error)
	Create(ctx context.Context, a *models.Assignment) error
	UpdateStatus(ctx context.Context, id string, status models.AssignmentStatus) error
	Delete(ctx context.Context, id string) error
}

type assignmentPlanValidator interface {
	ValidateAssignment(ctx context.Context, req dto.ValidateAssignmentRequest) (*models.ValidationResult, error)
}

// TeamService manages the staffing pool and workshop assignments. Assignment
// writes run the constraint validator first, same contract as workshops:
// errors block, warnings block unless forced.
type TeamService struct {
	people      teamPersonRepository
	assignments teamAssignmentRepository
	planCheck   assignmentPlanValidator
	cache       advisoryCache
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeamService instantiates TeamService.
func NewTeamService(
	people teamPersonRepository,
	assignments teamAssignmentRepository,
	planCheck assignmentPlanValidator,
	cache advisoryCache,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamService{
		people:      people,
		assignments: assignments,
		planCheck:   planCheck,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// ListPeople returns staff matching the filter with total count.
func (s *TeamService) ListPeople(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	items, total, err := s.people.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list people")
	}
	return items, total, nil
}

// GetPerson loads one person with their qualified workshop type ids.
func (s *TeamService) GetPerson(ctx context.Context, id string) (*models.Person, []string, error) {
	person, err := s.people.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	qualifications, err := s.people.QualificationTypeIDs(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qualifications")
	}
	return person, qualifications, nil
}

// CreatePerson registers a new staff member.
func (s *TeamService) CreatePerson(ctx context.Context, req dto.CreatePersonRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid person payload")
	}

	person := &models.Person{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Type:                models.PersonType(req.Type),
		MaxDaysPerWeek:      req.MaxDaysPerWeek,
		PreferredLocationID: req.PreferredLocationID,
		Active:              true,
		Notes:               req.Notes,
	}
	if err := s.people.Create(ctx, person); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create person")
	}
	if len(req.QualifiedTypeIDs) > 0 {
		if err := s.people.SetQualifications(ctx, person.ID, req.QualifiedTypeIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store qualifications")
		}
	}

	s.logger.Info("person created", zap.String("person_id", person.ID), zap.String("type", req.Type))
	return person, nil
}

// UpdatePerson mutates person fields; nil request fields stay untouched.
// QualifiedTypeIDs, when present, replaces the whole qualification set.
func (s *TeamService) UpdatePerson(ctx context.Context, id string, req dto.UpdatePersonRequest) (*models.Person, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid person payload")
	}

	person, err := s.people.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}

	if req.Name != nil {
		person.Name = *req.Name
	}
	if req.Email != nil {
		person.Email = req.Email
	}
	if req.Phone != nil {
		person.Phone = req.Phone
	}
	if req.MaxDaysPerWeek != nil {
		person.MaxDaysPerWeek = req.MaxDaysPerWeek
	}
	if req.PreferredLocationID != nil {
		person.PreferredLocationID = req.PreferredLocationID
	}
	if req.Active != nil {
		person.Active = *req.Active
	}
	if req.Notes != nil {
		person.Notes = req.Notes
	}

	if err := s.people.Update(ctx, person); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update person")
	}
	if req.QualifiedTypeIDs != nil {
		if err := s.people.SetQualifications(ctx, id, req.QualifiedTypeIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store qualifications")
		}
	}
	return person, nil
}

// DeactivatePerson removes someone from the active pool without losing their
// assignment history.
func (s *TeamService) DeactivatePerson(ctx context.Context, id string) error {
	person, err := s.people.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	if !person.Active {
		return nil
	}
	person.Active = false
	if err := s.people.Update(ctx, person); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate person")
	}
	s.logger.Info("person deactivated", zap.String("person_id", id))
	return nil
}

// PersonAssignments lists a person's assignments joined with the workshop
// planning fields, most recent first.
func (s *TeamService) PersonAssignments(ctx context.Context, personID string) ([]models.AssignmentDetail, error) {
	if _, err := s.people.FindByID(ctx, personID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	items, err := s.assignments.ListByPerson(ctx, personID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, nil
}

// WorkshopAssignments lists the assignments of one workshop.
func (s *TeamService) WorkshopAssignments(ctx context.Context, workshopID string) ([]models.Assignment, error) {
	items, err := s.assignments.ListByWorkshop(ctx, workshopID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, nil
}

// CreateAssignment binds a person to a workshop after the staffing rules
// pass. Duplicate bindings are rejected before validation runs.
func (s *TeamService) CreateAssignment(ctx context.Context, req dto.CreateAssignmentRequest, force bool) (*models.Assignment, *models.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	exists, err := s.assignments.Exists(ctx, req.WorkshopID, req.PersonID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing assignments")
	}
	if exists {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "person is already assigned to this workshop")
	}

	result, err := s.planCheck.ValidateAssignment(ctx, dto.ValidateAssignmentRequest{
		WorkshopID: req.WorkshopID,
		SessionID:  req.SessionID,
		PersonID:   req.PersonID,
		Role:       req.Role,
	})
	if err != nil {
		return nil, nil, err
	}
	if !result.IsValid {
		return nil, result, appErrors.Clone(appErrors.ErrRuleViolation, "assignment violates staffing rules")
	}
	if len(result.Warnings) > 0 && !force {
		return nil, result, appErrors.Clone(appErrors.ErrRuleViolation, "assignment has staffing warnings; retry with force to accept them")
	}

	assignment := &models.Assignment{
		WorkshopID: req.WorkshopID,
		SessionID:  req.SessionID,
		PersonID:   req.PersonID,
		Role:       models.AssignmentRole(req.Role),
		Status:     models.AssignmentPending,
		Notes:      req.Notes,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	InvalidateAdvisoryCaches(ctx, s.cache, s.logger)
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("workshop_id", req.WorkshopID),
		zap.String("person_id", req.PersonID),
		zap.String("role", req.Role),
	)
	return assignment, result, nil
}

// UpdateAssignmentStatus moves an assignment through its confirmation flow.
func (s *TeamService) UpdateAssignmentStatus(ctx context.Context, id string, req dto.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if req.Status != nil {
		status := models.AssignmentStatus(*req.Status)
		if assignment.Status != models.AssignmentPending && status != assignment.Status {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assignment was already answered")
		}
		if err := s.assignments.UpdateStatus(ctx, id, status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
		}
		assignment.Status = status
		InvalidateAdvisoryCaches(ctx, s.cache, s.logger)
	}
	return assignment, nil
}

// DeleteAssignment removes an assignment entirely.
func (s *TeamService) DeleteAssignment(ctx context.Context, id string) error {
	if _, err := s.assignments.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	InvalidateAdvisoryCaches(ctx, s.cache, s.logger)
	return nil
}
