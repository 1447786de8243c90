package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type workshopRepository interface {
	List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error)
	FindByID(ctx context.Context, id string) (*models.Workshop, error)
	FindDetailByID(ctx context.Context, id string) (*models.WorkshopDetail, error)
	Sessions(ctx context.Context, workshopID string) ([]models.WorkshopSession, error)
	Create(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession) error
	Update(ctx context.Context, w *models.Workshop, sessions []models.WorkshopSession) error
	UpdateStatus(ctx context.Context, id string, status models.WorkshopStatus) error
}

type workshopPlanValidator interface {
	ValidateWorkshop(ctx context.Context, req dto.ValidateWorkshopRequest) (*models.ValidationResult, error)
}

type workshopTypeLookup interface {
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
}

// WorkshopService manages the workshop lifecycle. Every write runs the
// constraint validator first: blocking errors always reject, warnings reject
// unless the caller forces the write.
type WorkshopService struct {
	workshops workshopRepository
	types     workshopTypeLookup
	planCheck workshopPlanValidator
	cache     advisoryCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkshopService instantiates WorkshopService.
func NewWorkshopService(
	workshops workshopRepository,
	types workshopTypeLookup,
	planCheck workshopPlanValidator,
	cache advisoryCache,
	validate *validator.Validate,
	logger *zap.Logger,
) *WorkshopService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkshopService{
		workshops: workshops,
		types:     types,
		planCheck: planCheck,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns workshops matching the filter with total count for pagination.
func (s *WorkshopService) List(ctx context.Context, filter models.WorkshopFilter) ([]models.Workshop, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	items, total, err := s.workshops.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workshops")
	}
	return items, total, nil
}

// Get loads one workshop with its type, location, sessions and assignments.
func (s *WorkshopService) Get(ctx context.Context, id string) (*models.WorkshopDetail, error) {
	detail, err := s.workshops.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	return detail, nil
}

// Sessions lists the dated meetings of one workshop.
func (s *WorkshopService) Sessions(ctx context.Context, workshopID string) ([]models.WorkshopSession, error) {
	if _, err := s.Get(ctx, workshopID); err != nil {
		return nil, err
	}
	sessions, err := s.workshops.Sessions(ctx, workshopID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	return sessions, nil
}

// Create plans a new workshop. The returned validation result carries the
// findings of the pre-write check; it is non-nil even on rejection so the
// caller can show what blocked.
func (s *WorkshopService) Create(ctx context.Context, req dto.CreateWorkshopRequest, force bool) (*models.WorkshopDetail, *models.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop payload")
	}

	result, err := s.planCheck.ValidateWorkshop(ctx, dto.ValidateWorkshopRequest{
		TypeID:     req.TypeID,
		LocationID: req.LocationID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Sessions:   req.Sessions,
	})
	if err != nil {
		return nil, nil, err
	}
	if !result.IsValid {
		return nil, result, appErrors.Clone(appErrors.ErrRuleViolation, "workshop violates planning constraints")
	}
	if len(result.Warnings) > 0 && !force {
		return nil, result, appErrors.Clone(appErrors.ErrRuleViolation, "workshop has planning warnings; retry with force to accept them")
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
	}
	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted as YYYY-MM-DD")
		}
		endDate = &parsed
	}

	wt, err := s.types.FindByID(ctx, req.TypeID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}

	sessions, err := s.buildSessions(req.Sessions, wt, startDate)
	if err != nil {
		return nil, nil, err
	}

	workshop := &models.Workshop{
		TypeID:     req.TypeID,
		LocationID: req.LocationID,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     models.WorkshopDraft,
		Notes:      req.Notes,
	}
	if err := s.workshops.Create(ctx, workshop, sessions); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workshop")
	}

	InvalidateAdvisoryCaches(ctx, s.cache, s.logger)
	s.logger.Info("workshop created",
		zap.String("workshop_id", workshop.ID),
		zap.String("type_id", workshop.TypeID),
		zap.String("location_id", workshop.LocationID),
	)

	detail, err := s.Get(ctx, workshop.ID)
	if err != nil {
		return nil, nil, err
	}
	return detail, result, nil
}

// Update mutates planning fields and revalidates the resulting state the same
// way Create does.
func (s *WorkshopService) Update(ctx context.Context, id string, req dto.UpdateWorkshopRequest, force bool) (*models.WorkshopDetail, *models.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop payload")
	}

	workshop, err := s.workshops.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	if workshop.Status.Terminal() {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "workshop is completed or cancelled and can no longer change")
	}

	if req.LocationID != nil {
		workshop.LocationID = *req.LocationID
	}
	if req.StartDate != nil {
		parsed, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
		}
		workshop.StartDate = parsed
	}
	if req.EndDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be formatted as YYYY-MM-DD")
		}
		workshop.EndDate = &parsed
	}
	if req.Status != nil {
		workshop.Status = models.WorkshopStatus(*req.Status)
	}
	if req.CurrentParticipants != nil {
		workshop.CurrentParticipants = *req.CurrentParticipants
	}
	if req.Notes != nil {
		workshop.Notes = req.Notes
	}

	var endDateStr *string
	if workshop.EndDate != nil {
		formatted := workshop.EndDate.Format(dateLayout)
		endDateStr = &formatted
	}
	result, err := s.planCheck.ValidateWorkshop(ctx, dto.ValidateWorkshopRequest{
		TypeID:             workshop.TypeID,
		LocationID:         workshop.LocationID,
		StartDate:          workshop.StartDate.Format(dateLayout),
		EndDate:            endDateStr,
		ExcludeWorkshopID:  workshop.ID,
		SkipLeadTimeChecks: true,
	})
	if err != nil {
		return nil, nil, err
	}
	if !result.IsValid {
		return nil, result, appErrors.Clone(appErrors.ErrRuleViolation, "workshop violates planning constraints")
	}
	if len(result.Warnings) > 0 && !force {
		return nil, result, appErrors.Clone(appErrors.ErrRuleViolation, "workshop has planning warnings; retry with force to accept them")
	}

	if err := s.workshops.Update(ctx, workshop, nil); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workshop")
	}

	InvalidateAdvisoryCaches(ctx, s.cache, s.logger)

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return detail, result, nil
}

// Cancel marks a workshop cancelled. Published and later workshops are never
// hard-deleted so their history and assignments stay auditable.
func (s *WorkshopService) Cancel(ctx context.Context, id string) error {
	workshop, err := s.workshops.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "workshop not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop")
	}
	if workshop.Status == models.WorkshopCancelled {
		return nil
	}
	if workshop.Status == models.WorkshopCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "completed workshops cannot be cancelled")
	}

	if err := s.workshops.UpdateStatus(ctx, id, models.WorkshopCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel workshop")
	}

	InvalidateAdvisoryCaches(ctx, s.cache, s.logger)
	s.logger.Info("workshop cancelled", zap.String("workshop_id", id))
	return nil
}

// buildSessions uses explicit session input when given, and otherwise derives
// the meeting dates from the type: weekly for evening series, consecutive days
// for multi-day, a single meeting for everything else.
func (s *WorkshopService) buildSessions(inputs []dto.SessionInput, wt *models.WorkshopType, startDate time.Time) ([]models.WorkshopSession, error) {
	if len(inputs) > 0 {
		sessions := make([]models.WorkshopSession, 0, len(inputs))
		for _, in := range inputs {
			date, err := time.Parse(dateLayout, in.Date)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "session dates must be formatted as YYYY-MM-DD")
			}
			sessions = append(sessions, models.WorkshopSession{
				SessionNumber:      in.SessionNumber,
				Date:               date,
				StartTime:          in.StartTime,
				EndTime:            in.EndTime,
				RequiresTechnician: in.RequiresTechnician,
			})
		}
		return sessions, nil
	}

	count := wt.SessionCount
	if count < 1 {
		count = 1
	}
	step := 0
	switch wt.DurationType {
	case models.DurationEveningSeries:
		step = 7
	case models.DurationMultiDay:
		step = 1
	default:
		count = 1
	}

	startTime, endTime := "19:00", "22:00"
	if wt.DefaultStartTime != nil {
		startTime = *wt.DefaultStartTime
	}
	if wt.DefaultEndTime != nil {
		endTime = *wt.DefaultEndTime
	}

	sessions := make([]models.WorkshopSession, 0, count)
	for i := 0; i < count; i++ {
		sessions = append(sessions, models.WorkshopSession{
			SessionNumber:      i + 1,
			Date:               startDate.AddDate(0, 0, i*step),
			StartTime:          startTime,
			EndTime:            endTime,
			RequiresTechnician: wt.RequiresTechnician,
		})
	}
	return sessions, nil
}
