package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type catalogLocationRepository interface {
	List(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error)
	FindByID(ctx context.Context, id string) (*models.Location, error)
	FindByCode(ctx context.Context, code string) (*models.Location, error)
	Create(ctx context.Context, loc *models.Location) error
	Update(ctx context.Context, loc *models.Location) error
}

type catalogTypeRepository interface {
	List(ctx context.Context, filter models.WorkshopTypeFilter) ([]models.WorkshopType, int, error)
	FindByID(ctx context.Context, id string) (*models.WorkshopType, error)
	FindByCode(ctx context.Context, code string) (*models.WorkshopType, error)
	Create(ctx context.Context, wt *models.WorkshopType) error
	Update(ctx context.Context, wt *models.WorkshopType) error
	AllowedLocationIDs(ctx context.Context, typeID string) ([]string, error)
	SetAllowedLocations(ctx context.Context, typeID string, locationIDs []string) error
	SetPrerequisites(ctx context.Context, typeID string, prerequisiteTypeIDs []string) error
	Prerequisites(ctx context.Context, typeID string) ([]models.TypePrerequisite, error)
}

// CatalogService administers the planning catalog: venues and workshop type
// definitions with their allow-lists and prerequisites.
type CatalogService struct {
	locations catalogLocationRepository
	types     catalogTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService instantiates CatalogService.
func NewCatalogService(locations catalogLocationRepository, types catalogTypeRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		locations: locations,
		types:     types,
		validator: validate,
		logger:    logger,
	}
}

// ListLocations returns venues matching the filter.
func (s *CatalogService) ListLocations(ctx context.Context, filter models.LocationFilter) ([]models.Location, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	items, total, err := s.locations.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	return items, total, nil
}

// GetLocation loads one venue.
func (s *CatalogService) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	return loc, nil
}

// CreateLocation registers a venue. Codes are unique.
func (s *CatalogService) CreateLocation(ctx context.Context, req dto.CreateLocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}

	existing, err := s.locations.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check location code")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a location with this code already exists")
	}

	loc := &models.Location{
		Code:          req.Code,
		Name:          req.Name,
		Address:       req.Address,
		OperatingDays: pq.StringArray(req.OperatingDays),
		CalendarID:    req.CalendarID,
		Active:        true,
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}
	s.logger.Info("location created", zap.String("location_id", loc.ID), zap.String("code", loc.Code))
	return loc, nil
}

// UpdateLocation mutates venue fields; nil request fields stay untouched.
func (s *CatalogService) UpdateLocation(ctx context.Context, id string, req dto.UpdateLocationRequest) (*models.Location, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}

	loc, err := s.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Address != nil {
		loc.Address = *req.Address
	}
	if req.OperatingDays != nil {
		loc.OperatingDays = pq.StringArray(req.OperatingDays)
	}
	if req.CalendarID != nil {
		loc.CalendarID = req.CalendarID
	}
	if req.Active != nil {
		loc.Active = *req.Active
	}

	if err := s.locations.Update(ctx, loc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update location")
	}
	return loc, nil
}

// ListWorkshopTypes returns course definitions matching the filter.
func (s *CatalogService) ListWorkshopTypes(ctx context.Context, filter models.WorkshopTypeFilter) ([]models.WorkshopType, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	items, total, err := s.types.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workshop types")
	}
	return items, total, nil
}

// WorkshopTypeDetail bundles a type with its configured relations.
type WorkshopTypeDetail struct {
	models.WorkshopType
	AllowedLocationIDs []string                  `json:"allowed_location_ids"`
	Prerequisites      []models.TypePrerequisite `json:"prerequisites"`
}

// GetWorkshopType loads one course definition with allow-list and
// prerequisites.
func (s *CatalogService) GetWorkshopType(ctx context.Context, id string) (*WorkshopTypeDetail, error) {
	wt, err := s.types.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}
	allowed, err := s.types.AllowedLocationIDs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allowed locations")
	}
	prereqs, err := s.types.Prerequisites(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	return &WorkshopTypeDetail{WorkshopType: *wt, AllowedLocationIDs: allowed, Prerequisites: prereqs}, nil
}

// CreateWorkshopType defines a new course offering.
func (s *CatalogService) CreateWorkshopType(ctx context.Context, req dto.CreateWorkshopTypeRequest) (*models.WorkshopType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop type payload")
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "price must be a non-negative decimal")
	}

	existing, err := s.types.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check type code")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a workshop type with this code already exists")
	}

	wt := &models.WorkshopType{
		Code:               req.Code,
		Name:               req.Name,
		Description:        req.Description,
		DurationType:       models.DurationType(req.DurationType),
		DefaultStartTime:   req.DefaultStartTime,
		DefaultEndTime:     req.DefaultEndTime,
		SessionCount:       req.SessionCount,
		MinParticipants:    req.MinParticipants,
		MaxParticipants:    req.MaxParticipants,
		Price:              price,
		RequiresTechnician: req.RequiresTechnician,
		Active:             true,
	}
	if err := s.types.Create(ctx, wt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workshop type")
	}

	if len(req.AllowedLocationIDs) > 0 {
		if err := s.types.SetAllowedLocations(ctx, wt.ID, req.AllowedLocationIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store allowed locations")
		}
	}
	if len(req.PrerequisiteIDs) > 0 {
		if err := s.types.SetPrerequisites(ctx, wt.ID, req.PrerequisiteIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store prerequisites")
		}
	}

	s.logger.Info("workshop type created", zap.String("type_id", wt.ID), zap.String("code", wt.Code))
	return wt, nil
}

// UpdateWorkshopType mutates a course definition; nil request fields stay
// untouched. Allowed locations and prerequisites are replaced wholesale when
// present.
func (s *CatalogService) UpdateWorkshopType(ctx context.Context, id string, req dto.UpdateWorkshopTypeRequest) (*models.WorkshopType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid workshop type payload")
	}

	wt, err := s.types.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workshop type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop type")
	}

	if req.Name != nil {
		wt.Name = *req.Name
	}
	if req.Description != nil {
		wt.Description = req.Description
	}
	if req.SessionCount != nil {
		wt.SessionCount = *req.SessionCount
	}
	if req.MinParticipants != nil {
		wt.MinParticipants = *req.MinParticipants
	}
	if req.MaxParticipants != nil {
		wt.MaxParticipants = *req.MaxParticipants
	}
	if wt.MaxParticipants < wt.MinParticipants {
		return nil, appErrors.Clone(appErrors.ErrValidation, "maxParticipants must not be below minParticipants")
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "price must be a non-negative decimal")
		}
		wt.Price = price
	}
	if req.RequiresTechnician != nil {
		wt.RequiresTechnician = *req.RequiresTechnician
	}
	if req.Active != nil {
		wt.Active = *req.Active
	}

	if err := s.types.Update(ctx, wt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workshop type")
	}
	if req.AllowedLocationIDs != nil {
		if err := s.types.SetAllowedLocations(ctx, id, req.AllowedLocationIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store allowed locations")
		}
	}
	if req.PrerequisiteIDs != nil {
		if err := s.types.SetPrerequisites(ctx, id, req.PrerequisiteIDs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store prerequisites")
		}
	}
	return wt, nil
}
