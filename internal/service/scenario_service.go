package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type scenarioWorkshopReader interface {
	ListDetailsByStatuses(ctx context.Context, statuses []models.WorkshopStatus, from, to *time.Time) ([]models.WorkshopDetail, error)
	CountByTypeAndYear(ctx context.Context, typeID string, year int) (int, error)
}

type scenarioTypeReader interface {
	FindByCode(ctx context.Context, code string) (*models.WorkshopType, error)
}

type scenarioPersonReader interface {
	ListActiveInstructors(ctx context.Context) ([]models.Person, error)
}

type scenarioAssignmentReader interface {
	CountByPersonInRange(ctx context.Context, personID string, from, to time.Time) (int, error)
}

// nonCancelledStatuses covers every lifecycle state that still contributes
// revenue. Completed workshops count toward the baseline, forecasts only look
// at upcoming states.
var nonCancelledStatuses = []models.WorkshopStatus{
	models.WorkshopDraft,
	models.WorkshopPublished,
	models.WorkshopConfirmed,
	models.WorkshopCompleted,
}

var forecastStatuses = []models.WorkshopStatus{
	models.WorkshopDraft,
	models.WorkshopPublished,
	models.WorkshopConfirmed,
}

// defaultWeeklyCapacity applies to instructors without an explicit weekly cap
// when projecting available teaching days.
const defaultWeeklyCapacity = 5

// ScenarioService answers what-if revenue questions and the planning
// analytics reports (capacity, forecast, yearly targets).
type ScenarioService struct {
	workshops   scenarioWorkshopReader
	types       scenarioTypeReader
	people      scenarioPersonReader
	assignments scenarioAssignmentReader
	rules       planningRulesProvider
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewScenarioService instantiates ScenarioService.
func NewScenarioService(
	workshops scenarioWorkshopReader,
	types scenarioTypeReader,
	people scenarioPersonReader,
	assignments scenarioAssignmentReader,
	rules planningRulesProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScenarioService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioService{
		workshops:   workshops,
		types:       types,
		people:      people,
		assignments: assignments,
		rules:       rules,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// AnalyzeScenario compares current planned revenue against a hypothetical
// plan with workshops added and removed. Unknown type codes and workshop ids
// are skipped rather than rejected, so a partially stale scenario still
// produces an answer.
func (s *ScenarioService) AnalyzeScenario(ctx context.Context, req dto.ScenarioRequest) (*models.ScenarioResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scenario payload")
	}

	details, err := s.workshops.ListDetailsByStatuses(ctx, nonCancelledStatuses, nil, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planned workshops")
	}

	current := decimal.Zero
	byID := make(map[string]*models.WorkshopDetail, len(details))
	for i := range details {
		d := &details[i]
		byID[d.ID] = d
		current = current.Add(workshopRevenue(d))
	}

	added := decimal.Zero
	for _, input := range req.AddWorkshops {
		wt, err := s.types.FindByCode(ctx, input.TypeCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve workshop type")
		}
		estimate := int64((wt.MinParticipants + wt.MaxParticipants) / 2)
		added = added.Add(wt.Price.Mul(decimal.NewFromInt(estimate)))
	}

	removed := decimal.Zero
	for _, id := range req.RemoveWorkshopIDs {
		d, ok := byID[id]
		if !ok {
			continue
		}
		removed = removed.Add(d.Type.Price.Mul(decimal.NewFromInt(int64(d.CurrentParticipants))))
	}

	scenario := current.Add(added).Sub(removed)
	difference := scenario.Sub(current)
	change := decimal.Zero
	if !current.IsZero() {
		change = difference.Div(current).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &models.ScenarioResult{
		CurrentRevenue:   current,
		ScenarioRevenue:  scenario,
		Difference:       difference,
		PercentageChange: change,
		AddedRevenue:     added,
		RemovedRevenue:   removed,
	}, nil
}

// AnalyzeCapacity reports each active instructor's assignment load over the
// period against their projected maximum, busiest first.
func (s *ScenarioService) AnalyzeCapacity(ctx context.Context, query dto.PeriodQuery) ([]models.CapacityEntry, error) {
	from, to, err := parsePeriod(query)
	if err != nil {
		return nil, err
	}

	instructors, err := s.people.ListActiveInstructors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}

	weeks := int(to.Sub(from).Hours()/24) / 7
	if weeks < 1 {
		weeks = 1
	}

	entries := make([]models.CapacityEntry, 0, len(instructors))
	for i := range instructors {
		p := &instructors[i]
		count, err := s.assignments.CountByPersonInRange(ctx, p.ID, from, to)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
		}

		weekly := defaultWeeklyCapacity
		if p.MaxDaysPerWeek != nil && *p.MaxDaysPerWeek > 0 {
			weekly = *p.MaxDaysPerWeek
		}
		maxCapacity := weekly * weeks

		utilization := 0.0
		if maxCapacity > 0 {
			utilization = math.Round(float64(count)/float64(maxCapacity)*100*100) / 100
		}
		remaining := maxCapacity - count
		if remaining < 0 {
			remaining = 0
		}

		entries = append(entries, models.CapacityEntry{
			Person:             models.PersonRef{ID: p.ID, Name: p.Name},
			PersonType:         string(p.Type),
			CurrentAssignments: count,
			MaxCapacity:        maxCapacity,
			RemainingCapacity:  remaining,
			Utilization:        utilization,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Utilization > entries[j].Utilization
	})
	return entries, nil
}

// ForecastRevenue sums expected revenue over draft, published and confirmed
// workshops in the period, broken down by type and location code.
func (s *ScenarioService) ForecastRevenue(ctx context.Context, query dto.PeriodQuery) (*models.RevenueReport, error) {
	from, to, err := parsePeriod(query)
	if err != nil {
		return nil, err
	}

	details, err := s.workshops.ListDetailsByStatuses(ctx, forecastStatuses, &from, &to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planned workshops")
	}

	report := &models.RevenueReport{
		Period:         fmt.Sprintf("%s to %s", from.Format(dateLayout), to.Format(dateLayout)),
		TotalRevenue:   decimal.Zero,
		ByWorkshopType: make(map[string]decimal.Decimal),
		ByLocation:     make(map[string]decimal.Decimal),
	}
	for i := range details {
		d := &details[i]
		revenue := workshopRevenue(d)

		report.TotalRevenue = report.TotalRevenue.Add(revenue)
		report.ByWorkshopType[d.Type.Code] = report.ByWorkshopType[d.Type.Code].Add(revenue)
		report.ByLocation[d.Location.Code] = report.ByLocation[d.Location.Code].Add(revenue)
		report.WorkshopCount++
		report.ParticipantCount += participantEstimate(d)
	}
	return report, nil
}

// TargetProgress compares the number of workshops planned per type this year
// against the configured yearly targets. OnTrack projects the target linearly
// over the months elapsed so far.
func (s *ScenarioService) TargetProgress(ctx context.Context, year int) ([]models.TargetReport, error) {
	if year <= 0 {
		year = s.now().Year()
	}

	rules, err := s.rules.PlanningRules(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(rules.YearlyTargets))
	for code := range rules.YearlyTargets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	month := 12
	if year == s.now().Year() {
		month = int(s.now().Month())
	}

	reports := make([]models.TargetReport, 0, len(codes))
	for _, code := range codes {
		target := rules.YearlyTargets[code]

		wt, err := s.types.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("yearly target references unknown workshop type", zap.String("code", code))
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve workshop type")
		}

		count, err := s.workshops.CountByTypeAndYear(ctx, wt.ID, year)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count workshops")
		}

		expected := float64(target) * float64(month) / 12
		reports = append(reports, models.TargetReport{
			WorkshopType: code,
			YearlyTarget: target,
			CurrentCount: count,
			Gap:          target - count,
			OnTrack:      float64(count) >= expected,
		})
	}
	return reports, nil
}

func parsePeriod(query dto.PeriodQuery) (time.Time, time.Time, error) {
	from, err := time.Parse(dateLayout, query.From)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, query.To)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return from, to, nil
}

func workshopRevenue(d *models.WorkshopDetail) decimal.Decimal {
	return d.Type.Price.Mul(decimal.NewFromInt(int64(participantEstimate(d))))
}

func participantEstimate(d *models.WorkshopDetail) int {
	if d.CurrentParticipants > 0 {
		return d.CurrentParticipants
	}
	return d.Type.MinParticipants
}
