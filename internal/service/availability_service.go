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

type availabilityRepository interface {
	FindByID(ctx context.Context, id string) (*models.Availability, error)
	ListByPerson(ctx context.Context, personID string) ([]models.Availability, error)
	ListByPersonAndRange(ctx context.Context, personID string, from, to time.Time) ([]models.Availability, error)
	Create(ctx context.Context, a *models.Availability) error
	Update(ctx context.Context, a *models.Availability) error
	Delete(ctx context.Context, id string) error
}

type availabilityPersonLookup interface {
	FindByID(ctx context.Context, id string) (*models.Person, error)
}

// AvailabilityCheck is the answer to a point-in-time availability question.
type AvailabilityCheck struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// AvailabilityService manages per-person availability windows.
type AvailabilityService struct {
	availabilities availabilityRepository
	people         availabilityPersonLookup
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(availabilities availabilityRepository, people availabilityPersonLookup, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		availabilities: availabilities,
		people:         people,
		validator:      validate,
		logger:         logger,
	}
}

// ListByPerson returns a person's availability entries, optionally narrowed
// to a window when both bounds are given.
func (s *AvailabilityService) ListByPerson(ctx context.Context, personID string, from, to *time.Time) ([]models.Availability, error) {
	if err := s.ensurePerson(ctx, personID); err != nil {
		return nil, err
	}
	var (
		items []models.Availability
		err   error
	)
	if from != nil && to != nil {
		items, err = s.availabilities.ListByPersonAndRange(ctx, personID, *from, *to)
	} else {
		items, err = s.availabilities.ListByPerson(ctx, personID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return items, nil
}

// Create records a new availability window.
func (s *AvailabilityService) Create(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.Availability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if err := s.ensurePerson(ctx, req.PersonID); err != nil {
		return nil, err
	}

	startDate, _ := time.Parse(dateLayout, req.StartDate)
	endDate, _ := time.Parse(dateLayout, req.EndDate)
	if endDate.Before(startDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}

	entry := &models.Availability{
		PersonID:  req.PersonID,
		Type:      models.AvailabilityType(req.Type),
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    req.Reason,
	}
	if err := s.availabilities.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability")
	}
	return entry, nil
}

// Update mutates an availability window; nil request fields stay untouched.
func (s *AvailabilityService) Update(ctx context.Context, id string, req dto.UpdateAvailabilityRequest) (*models.Availability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	entry, err := s.availabilities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	if req.Type != nil {
		entry.Type = models.AvailabilityType(*req.Type)
	}
	if req.StartDate != nil {
		parsed, _ := time.Parse(dateLayout, *req.StartDate)
		entry.StartDate = parsed
	}
	if req.EndDate != nil {
		parsed, _ := time.Parse(dateLayout, *req.EndDate)
		entry.EndDate = parsed
	}
	if req.Reason != nil {
		entry.Reason = req.Reason
	}
	if entry.EndDate.Before(entry.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}

	if err := s.availabilities.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability")
	}
	return entry, nil
}

// Delete removes an availability window.
func (s *AvailabilityService) Delete(ctx context.Context, id string) error {
	if _, err := s.availabilities.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if err := s.availabilities.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}
	return nil
}

// Check answers whether a person can work a given date. Only UNAVAILABLE
// windows block; the reason of the covering window is passed through.
func (s *AvailabilityService) Check(ctx context.Context, personID string, date time.Time) (*AvailabilityCheck, error) {
	if err := s.ensurePerson(ctx, personID); err != nil {
		return nil, err
	}
	entries, err := s.availabilities.ListByPersonAndRange(ctx, personID, date, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	for i := range entries {
		e := &entries[i]
		if e.Type == models.AvailabilityUnavailable && e.Covers(date) {
			reason := "unavailable"
			if e.Reason != nil && *e.Reason != "" {
				reason = *e.Reason
			}
			return &AvailabilityCheck{Available: false, Reason: reason}, nil
		}
	}
	return &AvailabilityCheck{Available: true}, nil
}

func (s *AvailabilityService) ensurePerson(ctx context.Context, personID string) error {
	if _, err := s.people.FindByID(ctx, personID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "person not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	return nil
}
