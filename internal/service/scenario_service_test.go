package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
)

type fakeScenarioWorkshops struct {
	details      []models.WorkshopDetail
	countsByType map[string]int
}

func (f *fakeScenarioWorkshops) ListDetailsByStatuses(_ context.Context, _ []models.WorkshopStatus, _, _ *time.Time) ([]models.WorkshopDetail, error) {
	return f.details, nil
}

func (f *fakeScenarioWorkshops) CountByTypeAndYear(_ context.Context, typeID string, _ int) (int, error) {
	return f.countsByType[typeID], nil
}

type fakeScenarioTypes struct {
	byCode map[string]*models.WorkshopType
}

func (f *fakeScenarioTypes) FindByCode(_ context.Context, code string) (*models.WorkshopType, error) {
	wt, ok := f.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return wt, nil
}

type fakeScenarioPeople struct {
	instructors []models.Person
}

func (f *fakeScenarioPeople) ListActiveInstructors(context.Context) ([]models.Person, error) {
	return f.instructors, nil
}

type fakeScenarioAssignments struct {
	countsByPerson map[string]int
}

func (f *fakeScenarioAssignments) CountByPersonInRange(_ context.Context, personID string, _, _ time.Time) (int, error) {
	return f.countsByPerson[personID], nil
}

func scenarioDetail(id string, wt models.WorkshopType, loc models.Location, participants int) models.WorkshopDetail {
	return models.WorkshopDetail{
		Workshop: models.Workshop{ID: id, CurrentParticipants: participants},
		Type:     wt,
		Location: loc,
	}
}

func newScenarioFixture() (*ScenarioService, *fakeScenarioWorkshops, *fakeScenarioTypes, *fakeScenarioPeople, *fakeScenarioAssignments) {
	iws := models.WorkshopType{
		ID:              "type-iws",
		Code:            "IWS",
		Name:            "Intro Workshop",
		MinParticipants: 6,
		MaxParticipants: 12,
		Price:           decimal.RequireFromString("1195.00"),
		Active:          true,
	}
	utrecht := models.Location{ID: "loc-utr", Code: "UTR", Name: "Utrecht", Active: true}

	workshops := &fakeScenarioWorkshops{
		details: []models.WorkshopDetail{
			scenarioDetail("ws-1", iws, utrecht, 8),
			scenarioDetail("ws-2", iws, utrecht, 0),
		},
		countsByType: map[string]int{},
	}
	types := &fakeScenarioTypes{byCode: map[string]*models.WorkshopType{"IWS": &iws}}
	people := &fakeScenarioPeople{}
	assignments := &fakeScenarioAssignments{countsByPerson: map[string]int{}}
	rules := &fakeRulesProvider{rules: models.DefaultPlanningRules()}

	svc := NewScenarioService(workshops, types, people, assignments, rules, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, workshops, types, people, assignments
}

func TestAnalyzeScenarioAddAndRemove(t *testing.T) {
	svc, _, _, _, _ := newScenarioFixture()

	// Baseline: ws-1 books 8 participants, ws-2 falls back to the minimum
	// of 6, so current revenue is (8+6) * 1195.00 = 16730.00.
	result, err := svc.AnalyzeScenario(context.Background(), dto.ScenarioRequest{
		AddWorkshops:      []dto.ScenarioWorkshopInput{{TypeCode: "IWS"}},
		RemoveWorkshopIDs: []string{"ws-1"},
	})
	require.NoError(t, err)

	assert.True(t, result.CurrentRevenue.Equal(decimal.RequireFromString("16730.00")), "current %s", result.CurrentRevenue)
	// Added workshop estimates (6+12)/2 = 9 participants.
	assert.True(t, result.AddedRevenue.Equal(decimal.RequireFromString("10755.00")), "added %s", result.AddedRevenue)
	assert.True(t, result.RemovedRevenue.Equal(decimal.RequireFromString("9560.00")), "removed %s", result.RemovedRevenue)
	assert.True(t, result.ScenarioRevenue.Equal(decimal.RequireFromString("17925.00")), "scenario %s", result.ScenarioRevenue)
	assert.True(t, result.Difference.Equal(decimal.RequireFromString("1195.00")), "difference %s", result.Difference)
}

func TestAnalyzeScenarioSkipsUnknownReferences(t *testing.T) {
	svc, _, _, _, _ := newScenarioFixture()

	result, err := svc.AnalyzeScenario(context.Background(), dto.ScenarioRequest{
		AddWorkshops:      []dto.ScenarioWorkshopInput{{TypeCode: "NOPE"}},
		RemoveWorkshopIDs: []string{"ws-missing"},
	})
	require.NoError(t, err)
	assert.True(t, result.AddedRevenue.IsZero())
	assert.True(t, result.RemovedRevenue.IsZero())
	assert.True(t, result.Difference.IsZero())
}

func TestAnalyzeScenarioZeroBaselinePercentage(t *testing.T) {
	svc, workshops, _, _, _ := newScenarioFixture()
	workshops.details = nil

	result, err := svc.AnalyzeScenario(context.Background(), dto.ScenarioRequest{
		AddWorkshops: []dto.ScenarioWorkshopInput{{TypeCode: "IWS"}},
	})
	require.NoError(t, err)
	assert.True(t, result.CurrentRevenue.IsZero())
	assert.True(t, result.PercentageChange.IsZero(), "percentage change undefined on an empty baseline")
	assert.True(t, result.ScenarioRevenue.Equal(result.AddedRevenue))
}

func TestAnalyzeCapacityUtilization(t *testing.T) {
	svc, _, _, people, assignments := newScenarioFixture()
	three := 3
	people.instructors = []models.Person{
		{ID: "p-1", Name: "Eva Jansen", Type: models.PersonInstructor, MaxDaysPerWeek: &three},
		{ID: "p-2", Name: "Tom de Boer", Type: models.PersonInstructor},
	}
	assignments.countsByPerson = map[string]int{"p-1": 4, "p-2": 2}

	// Two full weeks: p-1 caps at 3 days/week = 6, p-2 falls back to the
	// default of 5 days/week = 10.
	entries, err := svc.AnalyzeCapacity(context.Background(), dto.PeriodQuery{From: "2025-06-02", To: "2025-06-16"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Busiest instructor first.
	assert.Equal(t, "p-1", entries[0].Person.ID)
	assert.Equal(t, 6, entries[0].MaxCapacity)
	assert.Equal(t, 4, entries[0].CurrentAssignments)
	assert.Equal(t, 2, entries[0].RemainingCapacity)
	assert.InDelta(t, 66.67, entries[0].Utilization, 0.001)

	assert.Equal(t, "p-2", entries[1].Person.ID)
	assert.Equal(t, 10, entries[1].MaxCapacity)
	assert.InDelta(t, 20.0, entries[1].Utilization, 0.001)
}

func TestForecastRevenueBreakdown(t *testing.T) {
	svc, workshops, _, _, _ := newScenarioFixture()
	pws := models.WorkshopType{
		ID:              "type-pws",
		Code:            "PWS",
		Name:            "Pro Workshop",
		MinParticipants: 4,
		MaxParticipants: 8,
		Price:           decimal.RequireFromString("495.00"),
	}
	amsterdam := models.Location{ID: "loc-ams", Code: "AMS", Name: "Amsterdam"}
	workshops.details = append(workshops.details, scenarioDetail("ws-3", pws, amsterdam, 5))

	report, err := svc.ForecastRevenue(context.Background(), dto.PeriodQuery{From: "2025-06-01", To: "2025-08-31"})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01 to 2025-08-31", report.Period)
	assert.Equal(t, 3, report.WorkshopCount)
	assert.Equal(t, 8+6+5, report.ParticipantCount)
	assert.True(t, report.ByWorkshopType["IWS"].Equal(decimal.RequireFromString("16730.00")))
	assert.True(t, report.ByWorkshopType["PWS"].Equal(decimal.RequireFromString("2475.00")))
	assert.True(t, report.ByLocation["UTR"].Equal(decimal.RequireFromString("16730.00")))
	assert.True(t, report.ByLocation["AMS"].Equal(decimal.RequireFromString("2475.00")))
	assert.True(t, report.TotalRevenue.Equal(decimal.RequireFromString("19205.00")))
}

func TestForecastRevenueRejectsInvertedPeriod(t *testing.T) {
	svc, _, _, _, _ := newScenarioFixture()
	_, err := svc.ForecastRevenue(context.Background(), dto.PeriodQuery{From: "2025-08-01", To: "2025-06-01"})
	require.Error(t, err)
}

func TestTargetProgressProRatesCurrentYear(t *testing.T) {
	svc, workshops, _, _, _ := newScenarioFixture()
	rules := svc.rules.(*fakeRulesProvider)
	rules.rules.YearlyTargets = map[string]int{"IWS": 24, "GHOST": 10}
	workshops.countsByType = map[string]int{"type-iws": 12}

	// Clock is mid June 2025: six months in, so 24 * 6/12 = 12 keeps the
	// target on track. The GHOST code resolves to no type and is skipped.
	reports, err := svc.TargetProgress(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "IWS", reports[0].WorkshopType)
	assert.Equal(t, 24, reports[0].YearlyTarget)
	assert.Equal(t, 12, reports[0].CurrentCount)
	assert.Equal(t, 12, reports[0].Gap)
	assert.True(t, reports[0].OnTrack)
}

func TestTargetProgressPastYearUsesFullTarget(t *testing.T) {
	svc, workshops, _, _, _ := newScenarioFixture()
	rules := svc.rules.(*fakeRulesProvider)
	rules.rules.YearlyTargets = map[string]int{"IWS": 24}
	workshops.countsByType = map[string]int{"type-iws": 20}

	reports, err := svc.TargetProgress(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 4, reports[0].Gap)
	assert.False(t, reports[0].OnTrack, "20 of 24 misses a completed year's target")
}
