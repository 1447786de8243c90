package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/service"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
	"github.com/atelierhq/planner-api/pkg/response"
)

const queryDateLayout = "2006-01-02"

// PlanningHandler exposes rule validation, conflict scanning, slot search,
// optimization and scenario analysis endpoints.
type PlanningHandler struct {
	validation *service.ValidationService
	conflicts  *service.ConflictService
	slots      *service.SlotService
	optimizer  *service.OptimizerService
	scenarios  *service.ScenarioService
	metrics    *service.MetricsService
}

// NewPlanningHandler constructs the handler.
func NewPlanningHandler(
	validation *service.ValidationService,
	conflicts *service.ConflictService,
	slots *service.SlotService,
	optimizer *service.OptimizerService,
	scenarios *service.ScenarioService,
	metrics *service.MetricsService,
) *PlanningHandler {
	return &PlanningHandler{
		validation: validation,
		conflicts:  conflicts,
		slots:      slots,
		optimizer:  optimizer,
		scenarios:  scenarios,
		metrics:    metrics,
	}
}

// ValidateWorkshop godoc
// @Summary Validate a candidate workshop
// @Description Check a workshop plan against the planning rules without persisting it
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.ValidateWorkshopRequest true "Candidate workshop"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /planning/validate/workshop [post]
func (h *PlanningHandler) ValidateWorkshop(c *gin.Context) {
	var req dto.ValidateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workshop payload"))
		return
	}

	result, err := h.validation.ValidateWorkshop(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordValidation("workshop", result.IsValid)
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidateAssignment godoc
// @Summary Validate a candidate assignment
// @Description Check a staff assignment against qualification, availability and workload rules
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.ValidateAssignmentRequest true "Candidate assignment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /planning/validate/assignment [post]
func (h *PlanningHandler) ValidateAssignment(c *gin.Context) {
	var req dto.ValidateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	result, err := h.validation.ValidateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordValidation("assignment", result.IsValid)
	response.JSON(c, http.StatusOK, result, nil)
}

// ValidatePeriod godoc
// @Summary Validate an entire period
// @Description Re-run all planning rules over every workshop in a period
// @Tags Planning
// @Produce json
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /planning/validate/period [get]
func (h *PlanningHandler) ValidatePeriod(c *gin.Context) {
	from, to, err := parseRangeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.validation.ValidatePeriod(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordValidation("period", result.IsValid)
	response.JSON(c, http.StatusOK, result, nil)
}

// Conflicts godoc
// @Summary Scan a period for conflicts
// @Description Detect double bookings, overloads and missing staffing in a period
// @Tags Planning
// @Produce json
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /planning/conflicts [get]
func (h *PlanningHandler) Conflicts(c *gin.Context) {
	from, to, err := parseRangeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	conflicts, err := h.conflicts.FindConflicts(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// Slots godoc
// @Summary Find available slots
// @Description Rank open dates where a workshop could be scheduled
// @Tags Planning
// @Produce json
// @Param typeId query string false "Workshop type filter"
// @Param locationId query string false "Location filter"
// @Param from query string true "Search window start (YYYY-MM-DD)"
// @Param to query string true "Search window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /planning/slots [get]
func (h *PlanningHandler) Slots(c *gin.Context) {
	query := dto.SlotQuery{
		TypeID:     c.Query("typeId"),
		LocationID: c.Query("locationId"),
		From:       c.Query("from"),
		To:         c.Query("to"),
	}

	slots, err := h.slots.FindAvailableSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Optimize godoc
// @Summary Generate an optimal schedule
// @Description Propose a revenue-maximizing workshop plan for a horizon
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.OptimizeRequest true "Optimization horizon"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /planning/optimize [post]
func (h *PlanningHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
		return
	}

	started := time.Now()
	plan, err := h.optimizer.GenerateOptimalSchedule(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveSolverRun("error", time.Since(started))
		response.Error(c, err)
		return
	}
	h.metrics.ObserveSolverRun(string(plan.Status), time.Since(started))
	response.JSON(c, http.StatusOK, plan, nil)
}

// Scenario godoc
// @Summary Analyze a what-if scenario
// @Description Estimate the revenue impact of adding or removing workshops
// @Tags Planning
// @Accept json
// @Produce json
// @Param payload body dto.ScenarioRequest true "Scenario changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /planning/scenario [post]
func (h *PlanningHandler) Scenario(c *gin.Context) {
	var req dto.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid scenario payload"))
		return
	}

	result, err := h.scenarios.AnalyzeScenario(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func parseRangeQuery(c *gin.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(queryDateLayout, c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be a YYYY-MM-DD date")
	}
	to, err := time.Parse(queryDateLayout, c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be a YYYY-MM-DD date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return from, to, nil
}
