package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
)

type fakeTypeReader struct {
	types           map[string]*models.WorkshopType
	locationAllowed bool
	personQualified bool
}

func (f *fakeTypeReader) FindByID(_ context.Context, id string) (*models.WorkshopType, error) {
	if wt, ok := f.types[id]; ok {
		return wt, nil
	}
	return nil, nil
}

func (f *fakeTypeReader) IsLocationAllowed(context.Context, string, string) (bool, error) {
	return f.locationAllowed, nil
}

func (f *fakeTypeReader) IsPersonQualified(context.Context, string, string) (bool, error) {
	return f.personQualified, nil
}

type fakeLocationReader struct {
	locations map[string]*models.Location
}

func (f *fakeLocationReader) FindByID(_ context.Context, id string) (*models.Location, error) {
	if loc, ok := f.locations[id]; ok {
		return loc, nil
	}
	return nil, nil
}

type fakePersonReader struct {
	people map[string]*models.Person
}

func (f *fakePersonReader) FindByID(_ context.Context, id string) (*models.Person, error) {
	if p, ok := f.people[id]; ok {
		return p, nil
	}
	return nil, nil
}

type fakeWorkshopValidationReader struct {
	details  map[string]*models.WorkshopDetail
	occupied bool
	inRange  []models.WorkshopDetail
}

func (f *fakeWorkshopValidationReader) FindDetailByID(_ context.Context, id string) (*models.WorkshopDetail, error) {
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, nil
}

func (f *fakeWorkshopValidationReader) ExistsAt(context.Context, string, time.Time, string) (bool, error) {
	return f.occupied, nil
}

func (f *fakeWorkshopValidationReader) ListDetailsByRange(context.Context, time.Time, time.Time) ([]models.WorkshopDetail, error) {
	return f.inRange, nil
}

type fakeAssignmentValidationReader struct {
	onDate     int
	inWeek     int
	hasFullDay bool
}

func (f *fakeAssignmentValidationReader) CountByPersonOnDate(context.Context, string, time.Time, string) (int, error) {
	return f.onDate, nil
}

func (f *fakeAssignmentValidationReader) CountByPersonInRange(context.Context, string, time.Time, time.Time) (int, error) {
	return f.inWeek, nil
}

func (f *fakeAssignmentValidationReader) HasMultiDayOnDate(context.Context, string, time.Time) (bool, error) {
	return f.hasFullDay, nil
}

type fakeAvailabilityValidationReader struct {
	blocking []models.Availability
}

func (f *fakeAvailabilityValidationReader) FindBlocking(context.Context, string, []time.Time) ([]models.Availability, error) {
	return f.blocking, nil
}

type fakeRulesProvider struct {
	rules models.PlanningRules
}

func (f *fakeRulesProvider) PlanningRules(context.Context) (models.PlanningRules, error) {
	return f.rules, nil
}

func eveningSeriesType() *models.WorkshopType {
	return &models.WorkshopType{
		ID:              "type-iws",
		Code:            "IWS",
		Name:            "Intro Workshop",
		DurationType:    models.DurationEveningSeries,
		SessionCount:    4,
		MinParticipants: 6,
		MaxParticipants: 12,
	}
}

func amsterdamLocation() *models.Location {
	return &models.Location{
		ID:            "loc-ams",
		Code:          "AMS",
		Name:          "Amsterdam",
		OperatingDays: []string{"tuesday", "wednesday", "thursday"},
		Active:        true,
	}
}

func newValidationFixture() (*ValidationService, *fakeTypeReader, *fakeWorkshopValidationReader, *fakeAssignmentValidationReader, *fakeAvailabilityValidationReader) {
	types := &fakeTypeReader{
		types:           map[string]*models.WorkshopType{"type-iws": eveningSeriesType()},
		locationAllowed: true,
		personQualified: true,
	}
	locations := &fakeLocationReader{locations: map[string]*models.Location{"loc-ams": amsterdamLocation()}}
	people := &fakePersonReader{people: map[string]*models.Person{
		"person-1": {ID: "person-1", Name: "Mara", Type: models.PersonInstructor, Active: true},
	}}
	workshops := &fakeWorkshopValidationReader{details: map[string]*models.WorkshopDetail{}}
	assignments := &fakeAssignmentValidationReader{}
	availabilities := &fakeAvailabilityValidationReader{}
	rules := &fakeRulesProvider{rules: models.DefaultPlanningRules()}

	svc := NewValidationService(types, locations, people, workshops, assignments, availabilities, rules, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) }
	return svc, types, workshops, assignments, availabilities
}

func TestValidateWorkshopLocationClosedOnDay(t *testing.T) {
	svc, _, _, _, _ := newValidationFixture()

	// 2025-06-02 is a Monday; Amsterdam operates Tuesday through Thursday.
	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-ams",
		StartDate:  "2025-06-02",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "start_date", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "does not operate on monday")
}

func TestValidateWorkshopCleanRun(t *testing.T) {
	svc, _, _, _, _ := newValidationFixture()

	// A Tuesday more than eight weeks out produces no findings at all.
	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-ams",
		StartDate:  "2025-06-03",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateWorkshopLeadTimeWarningDoesNotBlock(t *testing.T) {
	svc, _, _, _, _ := newValidationFixture()

	// Two weeks ahead: below the four week minimum, still a Tuesday.
	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-ams",
		StartDate:  "2025-01-21",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "minimum publication lead time")
}

func TestValidateWorkshopIdealLeadTimeWarning(t *testing.T) {
	svc, _, _, _, _ := newValidationFixture()

	// Six weeks ahead: above the minimum but below the ideal of eight.
	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-ams",
		StartDate:  "2025-02-18",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "ideal publication lead time")
}

func TestValidateWorkshopVenueOccupied(t *testing.T) {
	svc, _, workshops, _, _ := newValidationFixture()
	workshops.occupied = true

	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-ams",
		StartDate:  "2025-06-03",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "already planned")
}

func TestValidateWorkshopLocationNotAllowed(t *testing.T) {
	svc, types, _, _, _ := newValidationFixture()
	types.locationAllowed = false

	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-iws",
		LocationID: "loc-ams",
		StartDate:  "2025-06-03",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "not allowed")
}

func TestValidateWorkshopUnknownType(t *testing.T) {
	svc, _, _, _, _ := newValidationFixture()

	result, err := svc.ValidateWorkshop(context.Background(), dto.ValidateWorkshopRequest{
		TypeID:     "type-missing",
		LocationID: "loc-ams",
		StartDate:  "2025-06-03",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "type_id", result.Errors[0].Field)
}

func assignmentFixtureWorkshop() *models.WorkshopDetail {
	return &models.WorkshopDetail{
		Workshop: models.Workshop{
			ID:        "ws-1",
			TypeID:    "type-iws",
			StartDate: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
			Status:    models.WorkshopDraft,
		},
		Type:     *eveningSeriesType(),
		Location: *amsterdamLocation(),
	}
}

func TestValidateAssignmentUnqualifiedInstructor(t *testing.T) {
	svc, types, workshops, _, _ := newValidationFixture()
	types.personQualified = false
	workshops.details["ws-1"] = assignmentFixtureWorkshop()

	result, err := svc.ValidateAssignment(context.Background(), dto.ValidateAssignmentRequest{
		WorkshopID: "ws-1",
		PersonID:   "person-1",
		Role:       "INSTRUCTOR",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "not qualified")
}

func TestValidateAssignmentTechnicianSkipsQualification(t *testing.T) {
	svc, types, workshops, _, _ := newValidationFixture()
	types.personQualified = false
	workshops.details["ws-1"] = assignmentFixtureWorkshop()

	result, err := svc.ValidateAssignment(context.Background(), dto.ValidateAssignmentRequest{
		WorkshopID: "ws-1",
		PersonID:   "person-1",
		Role:       "TECHNICIAN",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestValidateAssignmentWeeklyCapIsWarning(t *testing.T) {
	svc, _, workshops, assignments, _ := newValidationFixture()
	workshops.details["ws-1"] = assignmentFixtureWorkshop()
	assignments.inWeek = 2

	people := svc.people.(*fakePersonReader)
	maxDays := 2
	people.people["person-1"].MaxDaysPerWeek = &maxDays

	result, err := svc.ValidateAssignment(context.Background(), dto.ValidateAssignmentRequest{
		WorkshopID: "ws-1",
		PersonID:   "person-1",
		Role:       "INSTRUCTOR",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "weekly cap")
}

func TestValidateAssignmentDoubleBooked(t *testing.T) {
	svc, _, workshops, assignments, _ := newValidationFixture()
	workshops.details["ws-1"] = assignmentFixtureWorkshop()
	assignments.onDate = 1

	result, err := svc.ValidateAssignment(context.Background(), dto.ValidateAssignmentRequest{
		WorkshopID: "ws-1",
		PersonID:   "person-1",
		Role:       "INSTRUCTOR",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "already has an assignment")
}

func TestValidateAssignmentUnavailablePerson(t *testing.T) {
	svc, _, workshops, _, availabilities := newValidationFixture()
	workshops.details["ws-1"] = assignmentFixtureWorkshop()
	reason := "vacation"
	availabilities.blocking = []models.Availability{{
		ID:       "av-1",
		PersonID: "person-1",
		Type:     models.AvailabilityUnavailable,
		Reason:   &reason,
	}}

	result, err := svc.ValidateAssignment(context.Background(), dto.ValidateAssignmentRequest{
		WorkshopID: "ws-1",
		PersonID:   "person-1",
		Role:       "INSTRUCTOR",
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "vacation")
}

func TestValidateAssignmentFullDayBlocksEvening(t *testing.T) {
	svc, _, workshops, assignments, _ := newValidationFixture()
	workshops.details["ws-1"] = assignmentFixtureWorkshop()
	assignments.hasFullDay = true

	result, err := svc.ValidateAssignment(context.Background(), dto.ValidateAssignmentRequest{
		WorkshopID: "ws-1",
		PersonID:   "person-1",
		Role:       "INSTRUCTOR",
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "full-day workshop")
}

func TestValidatePeriodFlagsMissingStaffing(t *testing.T) {
	svc, _, workshops, _, _ := newValidationFixture()

	unstaffed := *assignmentFixtureWorkshop()
	unstaffed.DisplayID = 192
	unstaffed.Type.RequiresTechnician = true
	workshops.inRange = []models.WorkshopDetail{unstaffed}

	result, err := svc.ValidatePeriod(context.Background(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0].Message, "no instructor assigned")
	assert.Contains(t, result.Warnings[1].Message, "technician required")
}
