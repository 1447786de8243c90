package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type fakeCatalogLocations struct {
	byID    map[string]*models.Location
	byCode  map[string]*models.Location
	created *models.Location
	updated *models.Location
}

func newFakeCatalogLocations() *fakeCatalogLocations {
	return &fakeCatalogLocations{
		byID:   map[string]*models.Location{},
		byCode: map[string]*models.Location{},
	}
}

func (f *fakeCatalogLocations) List(_ context.Context, _ models.LocationFilter) ([]models.Location, int, error) {
	out := make([]models.Location, 0, len(f.byID))
	for _, loc := range f.byID {
		out = append(out, *loc)
	}
	return out, len(out), nil
}

func (f *fakeCatalogLocations) FindByID(_ context.Context, id string) (*models.Location, error) {
	loc, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *loc
	return &clone, nil
}

func (f *fakeCatalogLocations) FindByCode(_ context.Context, code string) (*models.Location, error) {
	loc, ok := f.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return loc, nil
}

func (f *fakeCatalogLocations) Create(_ context.Context, loc *models.Location) error {
	loc.ID = "loc-new"
	f.created = loc
	f.byID[loc.ID] = loc
	f.byCode[loc.Code] = loc
	return nil
}

func (f *fakeCatalogLocations) Update(_ context.Context, loc *models.Location) error {
	f.updated = loc
	f.byID[loc.ID] = loc
	return nil
}

type fakeCatalogTypes struct {
	byID          map[string]*models.WorkshopType
	byCode        map[string]*models.WorkshopType
	created       *models.WorkshopType
	allowed       map[string][]string
	prerequisites map[string][]string
}

func newFakeCatalogTypes() *fakeCatalogTypes {
	return &fakeCatalogTypes{
		byID:          map[string]*models.WorkshopType{},
		byCode:        map[string]*models.WorkshopType{},
		allowed:       map[string][]string{},
		prerequisites: map[string][]string{},
	}
}

func (f *fakeCatalogTypes) List(_ context.Context, _ models.WorkshopTypeFilter) ([]models.WorkshopType, int, error) {
	out := make([]models.WorkshopType, 0, len(f.byID))
	for _, wt := range f.byID {
		out = append(out, *wt)
	}
	return out, len(out), nil
}

func (f *fakeCatalogTypes) FindByID(_ context.Context, id string) (*models.WorkshopType, error) {
	wt, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *wt
	return &clone, nil
}

func (f *fakeCatalogTypes) FindByCode(_ context.Context, code string) (*models.WorkshopType, error) {
	wt, ok := f.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return wt, nil
}

func (f *fakeCatalogTypes) Create(_ context.Context, wt *models.WorkshopType) error {
	wt.ID = "type-new"
	f.created = wt
	f.byID[wt.ID] = wt
	f.byCode[wt.Code] = wt
	return nil
}

func (f *fakeCatalogTypes) Update(_ context.Context, wt *models.WorkshopType) error {
	f.byID[wt.ID] = wt
	return nil
}

func (f *fakeCatalogTypes) AllowedLocationIDs(_ context.Context, typeID string) ([]string, error) {
	return f.allowed[typeID], nil
}

func (f *fakeCatalogTypes) SetAllowedLocations(_ context.Context, typeID string, locationIDs []string) error {
	f.allowed[typeID] = locationIDs
	return nil
}

func (f *fakeCatalogTypes) SetPrerequisites(_ context.Context, typeID string, prerequisiteTypeIDs []string) error {
	f.prerequisites[typeID] = prerequisiteTypeIDs
	return nil
}

func (f *fakeCatalogTypes) Prerequisites(_ context.Context, typeID string) ([]models.TypePrerequisite, error) {
	ids := f.prerequisites[typeID]
	out := make([]models.TypePrerequisite, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.TypePrerequisite{WorkshopTypeID: typeID, PrerequisiteTypeID: id, Required: true})
	}
	return out, nil
}

func newCatalogFixture() (*CatalogService, *fakeCatalogLocations, *fakeCatalogTypes) {
	locations := newFakeCatalogLocations()
	types := newFakeCatalogTypes()
	return NewCatalogService(locations, types, nil, nil), locations, types
}

func TestCreateLocationUniqueCode(t *testing.T) {
	svc, locations, _ := newCatalogFixture()

	loc, err := svc.CreateLocation(context.Background(), dto.CreateLocationRequest{
		Code:          "UTR",
		Name:          "Utrecht",
		OperatingDays: []string{"tuesday", "wednesday"},
	})
	require.NoError(t, err)
	assert.True(t, loc.Active)
	assert.Equal(t, []string{"tuesday", "wednesday"}, []string(loc.OperatingDays))
	require.NotNil(t, locations.created)

	_, err = svc.CreateLocation(context.Background(), dto.CreateLocationRequest{
		Code:          "UTR",
		Name:          "Utrecht Again",
		OperatingDays: []string{"monday"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateLocationRejectsBogusDay(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.CreateLocation(context.Background(), dto.CreateLocationRequest{
		Code:          "UTR",
		Name:          "Utrecht",
		OperatingDays: []string{"someday"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateWorkshopTypeStoresRelations(t *testing.T) {
	svc, _, types := newCatalogFixture()

	wt, err := svc.CreateWorkshopType(context.Background(), dto.CreateWorkshopTypeRequest{
		Code:               "PWS",
		Name:               "Pro Workshop",
		DurationType:       "MULTI_DAY",
		SessionCount:       2,
		MinParticipants:    4,
		MaxParticipants:    8,
		Price:              "495.00",
		RequiresTechnician: true,
		AllowedLocationIDs: []string{"loc-utr"},
		PrerequisiteIDs:    []string{"type-iws"},
	})
	require.NoError(t, err)
	assert.True(t, wt.Active)
	assert.Equal(t, "495", wt.Price.String())
	assert.Equal(t, []string{"loc-utr"}, types.allowed["type-new"])
	assert.Equal(t, []string{"type-iws"}, types.prerequisites["type-new"])
}

func TestCreateWorkshopTypeRejectsNegativePrice(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.CreateWorkshopType(context.Background(), dto.CreateWorkshopTypeRequest{
		Code:            "PWS",
		Name:            "Pro Workshop",
		DurationType:    "SINGLE_DAY",
		SessionCount:    1,
		MinParticipants: 4,
		MaxParticipants: 8,
		Price:           "-1.00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateWorkshopTypeGuardsCapacityBounds(t *testing.T) {
	svc, _, types := newCatalogFixture()
	types.byID["type-iws"] = &models.WorkshopType{
		ID:              "type-iws",
		Code:            "IWS",
		MinParticipants: 6,
		MaxParticipants: 12,
	}

	lowMax := 4
	_, err := svc.UpdateWorkshopType(context.Background(), "type-iws", dto.UpdateWorkshopTypeRequest{
		MaxParticipants: &lowMax,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetWorkshopTypeIncludesRelations(t *testing.T) {
	svc, _, types := newCatalogFixture()
	types.byID["type-iws"] = &models.WorkshopType{ID: "type-iws", Code: "IWS"}
	types.allowed["type-iws"] = []string{"loc-utr", "loc-ams"}
	types.prerequisites["type-iws"] = []string{"type-base"}

	detail, err := svc.GetWorkshopType(context.Background(), "type-iws")
	require.NoError(t, err)
	assert.Equal(t, []string{"loc-utr", "loc-ams"}, detail.AllowedLocationIDs)
	require.Len(t, detail.Prerequisites, 1)
	assert.Equal(t, "type-base", detail.Prerequisites[0].PrerequisiteTypeID)
}

func TestGetLocationNotFound(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.GetLocation(context.Background(), "loc-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
