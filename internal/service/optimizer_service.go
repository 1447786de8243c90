package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/internal/solver"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

type optimizerTypeReader interface {
	ListActive(ctx context.Context) ([]models.WorkshopType, error)
}

type optimizerLocationReader interface {
	ListActive(ctx context.Context) ([]models.Location, error)
}

// planBackend abstracts the solver so another binding can substitute the
// built-in branch and bound.
type planBackend func(ctx context.Context, m *solver.Model) (*solver.Solution, error)

// OptimizerService proposes revenue-maximal schedules over a horizon. It
// never persists anything; callers commit proposals through the ordinary
// create path, which re-enters validation.
type OptimizerService struct {
	types      optimizerTypeReader
	locations  optimizerLocationReader
	solve      planBackend
	timeBudget time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewOptimizerService instantiates OptimizerService.
func NewOptimizerService(types optimizerTypeReader, locations optimizerLocationReader, timeBudget time.Duration, validate *validator.Validate, logger *zap.Logger) *OptimizerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeBudget <= 0 {
		timeBudget = 30 * time.Second
	}
	return &OptimizerService{
		types:      types,
		locations:  locations,
		solve:      solver.Solve,
		timeBudget: timeBudget,
		validator:  validate,
		logger:     logger,
	}
}

type planVariable struct {
	v        solver.BoolVar
	workshop models.WorkshopTypeRef
	location models.LocationRef
	date     time.Time
	revenue  int64
}

// GenerateOptimalSchedule builds one boolean variable per (type, venue,
// weekday) triple and maximizes estimated revenue under the occupancy
// constraints. A target revenue, when given, becomes a hard lower bound, so
// an unreachable target yields no_solution rather than a shortfall plan.
func (s *OptimizerService) GenerateOptimalSchedule(ctx context.Context, req dto.OptimizeRequest) (*models.PlanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization payload")
	}
	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be formatted as YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be formatted as YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}

	types, err := s.types.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workshop types")
	}
	locations, err := s.locations.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locations")
	}

	var dates []time.Time
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, day)
		}
	}

	model := solver.NewModel()
	variables := make([]planVariable, 0, len(types)*len(locations)*len(dates))
	byLocationDate := make(map[string][]solver.BoolVar)

	for ti := range types {
		wt := &types[ti]
		revenue := estimatedRevenueCents(wt)
		for li := range locations {
			loc := &locations[li]
			for _, d := range dates {
				name := fmt.Sprintf("ws_%s_%s_%s", wt.Code, loc.Code, d.Format(dateLayout))
				v := model.NewBoolVar(name, revenue)

				if !loc.OperatesOn(d.Weekday()) {
					model.AddFixZero(v)
				}

				slotKey := loc.ID + "|" + d.Format(dateLayout)
				byLocationDate[slotKey] = append(byLocationDate[slotKey], v)

				variables = append(variables, planVariable{
					v:        v,
					workshop: models.WorkshopTypeRef{ID: wt.ID, Code: wt.Code, Name: wt.Name},
					location: models.LocationRef{ID: loc.ID, Code: loc.Code, Name: loc.Name},
					date:     d,
					revenue:  revenue,
				})
			}
		}
	}

	for _, vars := range byLocationDate {
		model.AddAtMostOne(vars...)
	}

	if req.TargetRevenue != nil {
		coeffs := make(map[solver.BoolVar]int64, len(variables))
		for _, pv := range variables {
			coeffs[pv.v] = pv.revenue
		}
		target := decimal.NewFromFloat(*req.TargetRevenue).Mul(decimal.NewFromInt(100)).IntPart()
		model.AddLowerBound(coeffs, target)
	}

	solveCtx, cancel := context.WithTimeout(ctx, s.timeBudget)
	defer cancel()

	started := time.Now()
	solution, err := s.solve(solveCtx, model)
	if err != nil {
		s.logger.Error("schedule solve aborted", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return nil, appErrors.Wrap(err, appErrors.ErrSolverUnavailable.Code, appErrors.ErrSolverUnavailable.Status, "optimizer ran out of time before finding a plan")
	}

	if solution.Status == solver.StatusInfeasible {
		return &models.PlanResult{
			Status:    models.PlanStatusNoSolution,
			Scheduled: []models.ScheduledWorkshop{},
			Message:   "no feasible schedule found with the current constraints",
		}, nil
	}

	scheduled := make([]models.ScheduledWorkshop, 0)
	for _, pv := range variables {
		if solution.Value(pv.v) {
			scheduled = append(scheduled, models.ScheduledWorkshop{
				WorkshopType: pv.workshop,
				Location:     pv.location,
				Date:         pv.date,
			})
		}
	}

	// The all-false assignment is always feasible, so an empty proposal means
	// no (type, venue, date) triple was selectable at all.
	if len(scheduled) == 0 {
		return &models.PlanResult{
			Status:    models.PlanStatusNoSolution,
			Scheduled: []models.ScheduledWorkshop{},
			Message:   "no feasible schedule found with the current constraints",
		}, nil
	}

	s.logger.Info("schedule generated",
		zap.Int("workshops", len(scheduled)),
		zap.Bool("optimal", solution.Status == solver.StatusOptimal),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &models.PlanResult{
		Status:           models.PlanStatusSuccess,
		Optimal:          solution.Status == solver.StatusOptimal,
		Scheduled:        scheduled,
		Total:            len(scheduled),
		EstimatedRevenue: decimal.NewFromInt(solution.Objective).Div(decimal.NewFromInt(100)),
	}, nil
}

// estimatedRevenueCents prices a prospective workshop using the fixed
// enrollment heuristic min(max_participants, min_participants+3).
func estimatedRevenueCents(wt *models.WorkshopType) int64 {
	expected := wt.MinParticipants + 3
	if wt.MaxParticipants < expected {
		expected = wt.MaxParticipants
	}
	return wt.Price.Mul(decimal.NewFromInt(int64(expected))).Mul(decimal.NewFromInt(100)).IntPart()
}
