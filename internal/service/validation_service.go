package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type workshopTypeReader interface {
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
	IsLocationAllowed(ctx context.Context, typeID, locationID string) (bool, error)
	IsPersonQualified(ctx context.Context, typeID, personID string) (bool, error)
}

type locationReader interface {
	FindByID(ctx context.Context, id string) (*models.Location, error)
}

type personReader interface {
	FindByID(ctx context.Context, id string) (*models.Person, error)
}

type workshopValidationReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.WorkshopDetail, error)
	ExistsAt(ctx context.Context, locationID string, date time.Time, excludeWorkshopID string) (bool, error)
	ListDetailsByRange(ctx context.Context, from, to time.Time) ([]models.WorkshopDetail, error)
}

type assignmentValidationReader interface {
	CountByPersonOnDate(ctx context.Context, personID string, date time.Time, excludeWorkshopID string) (int, error)
	CountByPersonInRange(ctx context.Context, personID string, from, to time.Time) (int, error)
	HasMultiDayOnDate(ctx context.Context, personID string, date time.Time) (bool, error)
}

type availabilityValidationReader interface {
	FindBlocking(ctx context.Context, personID string, dates []time.Time) ([]models.Availability, error)
}

type planningRulesProvider interface {
	PlanningRules(ctx context.Context) (models.PlanningRules, error)
}

// ValidationService checks candidate workshops and assignments against the
// planning rules. Blocking findings prevent the write; advisory findings
// never do.
type ValidationService struct {
	types          workshopTypeReader
	locations      locationReader
	people         personReader
	workshops      workshopValidationReader
	assignments    assignmentValidationReader
	availabilities availabilityValidationReader
	rules          planningRulesProvider
	validator      *validator.Validate
	logger         *zap.Logger
	now            func() time.Time
}

// NewValidationService instantiates ValidationService.
func NewValidationService(
	types workshopTypeReader,
	locations locationReader,
	people personReader,
	workshops workshopValidationReader,
	assignments assignmentValidationReader,
	availabilities availabilityValidationReader,
	rules planningRulesProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *ValidationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		types:          types,
		locations:      locations,
		people:         people,
		workshops:      workshops,
		assignments:    assignments,
		availabilities: availabilities,
		rules:          rules,
		validator:      validate,
		logger:         logger,
		now:            time.Now,
	}
}

// ValidateWorkshop runs the full rule set against a candidate workshop.
// Missing references short-circuit to a single blocking finding.
func (s *ValidationService) ValidateWorkshop(ctx context.Context, req dto.ValidateWorkshopRequest) (*models.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop payload")
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
	}

	var findings, warnings []models.ValidationError

	workshopType, err := s.loadType(ctx, req.TypeID)
	if err != nil {
		return nil, err
	}
	location, err := s.loadLocation(ctx, req.LocationID)
	if err != nil {
		return nil, err
	}

	if workshopType == nil {
		findings = append(findings, models.ValidationError{Field: "type_id", Message: "workshop type not found", Severity: models.SeverityError})
		result := models.NewValidationResult(findings, warnings)
		return &result, nil
	}
	if location == nil {
		findings = append(findings, models.ValidationError{Field: "location_id", Message: "location not found", Severity: models.SeverityError})
		result := models.NewValidationResult(findings, warnings)
		return &result, nil
	}

	allowed, err := s.types.IsLocationAllowed(ctx, workshopType.ID, location.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check allowed locations")
	}
	if !allowed {
		findings = append(findings, models.ValidationError{
			Field:    "location_id",
			Message:  fmt.Sprintf("%s is not allowed at %s", workshopType.Code, location.Name),
			Severity: models.SeverityError,
		})
	}

	dayName := strings.ToLower(startDate.Weekday().String())
	if !location.OperatesOn(startDate.Weekday()) {
		findings = append(findings, models.ValidationError{
			Field:    "start_date",
			Message:  fmt.Sprintf("%s does not operate on %s", location.Name, dayName),
			Severity: models.SeverityError,
		})
	}

	occupied, err := s.workshops.ExistsAt(ctx, location.ID, startDate, req.ExcludeWorkshopID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check venue occupancy")
	}
	if occupied {
		findings = append(findings, models.ValidationError{
			Field:    "start_date",
			Message:  fmt.Sprintf("another workshop is already planned at %s on this date", location.Name),
			Severity: models.SeverityError,
		})
	}

	if !req.SkipLeadTimeChecks {
		leadWarnings, err := s.checkLeadTime(ctx, startDate)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, leadWarnings...)
	}

	result := models.NewValidationResult(findings, warnings)
	return &result, nil
}

// ValidateAssignment runs the staffing rule set against a candidate
// assignment.
func (s *ValidationService) ValidateAssignment(ctx context.Context, req dto.ValidateAssignmentRequest) (*models.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	var findings, warnings []models.ValidationError

	person, err := s.loadPerson(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		findings = append(findings, models.ValidationError{Field: "person_id", Message: "person not found", Severity: models.SeverityError})
		result := models.NewValidationResult(findings, warnings)
		return &result, nil
	}

	workshop, err := s.loadWorkshopDetail(ctx, req.WorkshopID)
	if err != nil {
		return nil, err
	}
	if workshop == nil {
		findings = append(findings, models.ValidationError{Field: "workshop_id", Message: "workshop not found", Severity: models.SeverityError})
		result := models.NewValidationResult(findings, warnings)
		return &result, nil
	}

	role := models.AssignmentRole(req.Role)
	if role.RequiresQualification() {
		qualified, err := s.types.IsPersonQualified(ctx, workshop.Type.ID, person.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check qualification")
		}
		if !qualified {
			findings = append(findings, models.ValidationError{
				Field:    "person_id",
				Message:  fmt.Sprintf("%s is not qualified to teach %s", person.Name, workshop.Type.Code),
				Severity: models.SeverityError,
			})
		}
	}

	conflicting, err := s.assignments.CountByPersonOnDate(ctx, person.ID, workshop.StartDate, workshop.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment conflicts")
	}
	if conflicting > 0 {
		findings = append(findings, models.ValidationError{
			Field:    "person_id",
			Message:  fmt.Sprintf("%s already has an assignment on this date", person.Name),
			Severity: models.SeverityError,
		})
	}

	if person.MaxDaysPerWeek != nil {
		weekStart, weekEnd := isoWeekBounds(workshop.StartDate)
		count, err := s.assignments.CountByPersonInRange(ctx, person.ID, weekStart, weekEnd)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count weekly assignments")
		}
		if count >= *person.MaxDaysPerWeek {
			warnings = append(warnings, models.ValidationError{
				Field:    "person_id",
				Message:  fmt.Sprintf("%s is at the weekly cap (%d days)", person.Name, *person.MaxDaysPerWeek),
				Severity: models.SeverityWarning,
			})
		}
	}

	blocking, err := s.availabilities.FindBlocking(ctx, person.ID, []time.Time{workshop.StartDate})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check availability")
	}
	if len(blocking) > 0 {
		reason := "unavailable"
		if blocking[0].Reason != nil && *blocking[0].Reason != "" {
			reason = *blocking[0].Reason
		}
		findings = append(findings, models.ValidationError{
			Field:    "person_id",
			Message:  fmt.Sprintf("%s is unavailable: %s", person.Name, reason),
			Severity: models.SeverityError,
		})
	}

	energyWarnings, err := s.checkEnergyRules(ctx, person, workshop)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, energyWarnings...)

	result := models.NewValidationResult(findings, warnings)
	return &result, nil
}

// ValidatePeriod audits plan completeness over a date range. It only emits
// advisory findings; the hard rules are enforced at write time.
func (s *ValidationService) ValidatePeriod(ctx context.Context, from, to time.Time) (*models.ValidationResult, error) {
	workshops, err := s.workshops.ListDetailsByRange(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshops for period")
	}

	var warnings []models.ValidationError
	for i := range workshops {
		w := &workshops[i]
		code := models.DisplayCode(w.Type.Code, w.DisplayID, w.Location.Code)

		if len(w.Assignments) == 0 {
			warnings = append(warnings, models.ValidationError{
				Field:    fmt.Sprintf("workshop_%s", w.ID),
				Message:  fmt.Sprintf("%s: no instructor assigned", code),
				Severity: models.SeverityWarning,
			})
		}

		if w.Type.RequiresTechnician && !hasRole(w.Assignments, models.RoleTechnician) {
			warnings = append(warnings, models.ValidationError{
				Field:    fmt.Sprintf("workshop_%s", w.ID),
				Message:  fmt.Sprintf("%s: technician required but not assigned", code),
				Severity: models.SeverityWarning,
			})
		}
	}

	result := models.NewValidationResult(nil, warnings)
	return &result, nil
}

func (s *ValidationService) checkLeadTime(ctx context.Context, startDate time.Time) ([]models.ValidationError, error) {
	rules, err := s.rules.PlanningRules(ctx)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(s.now())
	weeksUntil := startDate.Sub(today).Hours() / 24 / 7

	if weeksUntil < float64(rules.LeadTimeMinimumWeeks) {
		return []models.ValidationError{{
			Field:    "start_date",
			Message:  fmt.Sprintf("less than %d weeks until start (minimum publication lead time)", rules.LeadTimeMinimumWeeks),
			Severity: models.SeverityWarning,
		}}, nil
	}
	if weeksUntil < float64(rules.LeadTimeIdealWeeks) {
		return []models.ValidationError{{
			Field:    "start_date",
			Message:  fmt.Sprintf("less than %d weeks until start (ideal publication lead time)", rules.LeadTimeIdealWeeks),
			Severity: models.SeverityWarning,
		}}, nil
	}
	return nil, nil
}

func (s *ValidationService) checkEnergyRules(ctx context.Context, person *models.Person, workshop *models.WorkshopDetail) ([]models.ValidationError, error) {
	rules, err := s.rules.PlanningRules(ctx)
	if err != nil {
		return nil, err
	}
	if !rules.FullDayBlocksEvening || workshop.Type.DurationType != models.DurationEveningSeries {
		return nil, nil
	}

	hasFullDay, err := s.assignments.HasMultiDayOnDate(ctx, person.ID, workshop.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check same-day workload")
	}
	if !hasFullDay {
		return nil, nil
	}
	return []models.ValidationError{{
		Field:    "person_id",
		Message:  fmt.Sprintf("%s has a full-day workshop that day, an evening series is discouraged", person.Name),
		Severity: models.SeverityWarning,
	}}, nil
}

func (s *ValidationService) loadType(ctx context.Context, id string) (*models.WorkshopType, error) {
	wt, err := s.types.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}
	return wt, nil
}

func (s *ValidationService) loadLocation(ctx context.Context, id string) (*models.Location, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return loc, nil
}

func (s *ValidationService) loadPerson(ctx context.Context, id string) (*models.Person, error) {
	p, err := s.people.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	return p, nil
}

func (s *ValidationService) loadWorkshopDetail(ctx context.Context, id string) (*models.WorkshopDetail, error) {
	w, err := s.workshops.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	return w, nil
}

func hasRole(assignments []models.Assignment, role models.AssignmentRole) bool {
	for _, a := range assignments {
		if a.Role == role {
			return true
		}
	}
	return false
}

// isoWeekBounds returns the Monday and Sunday enclosing the given date.
func isoWeekBounds(date time.Time) (time.Time, time.Time) {
	day := truncateToDay(date)
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
