package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/service"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
	"github.com/atelierhq/planner-api/pkg/response"
)

// AnalyticsHandler exposes capacity, revenue and target reports.
type AnalyticsHandler struct {
	scenarios *service.ScenarioService
	metrics   *service.MetricsService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(scenarios *service.ScenarioService, metrics *service.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{scenarios: scenarios, metrics: metrics}
}

// Capacity godoc
// @Summary Instructor capacity report
// @Description Assignment load per active instructor over a period
// @Tags Analytics
// @Produce json
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /analytics/capacity [get]
func (h *AnalyticsHandler) Capacity(c *gin.Context) {
	query := dto.PeriodQuery{From: c.Query("from"), To: c.Query("to")}
	entries, err := h.scenarios.AnalyzeCapacity(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Revenue godoc
// @Summary Revenue forecast
// @Description Expected revenue for planned workshops in a period
// @Tags Analytics
// @Produce json
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /analytics/revenue [get]
func (h *AnalyticsHandler) Revenue(c *gin.Context) {
	query := dto.PeriodQuery{From: c.Query("from"), To: c.Query("to")}
	report, err := h.scenarios.ForecastRevenue(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Targets godoc
// @Summary Yearly target progress
// @Description Progress against configured per-type yearly targets
// @Tags Analytics
// @Produce json
// @Param year query int false "Calendar year, defaults to the current year"
// @Success 200 {object} response.Envelope
// @Router /analytics/targets [get]
func (h *AnalyticsHandler) Targets(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a four-digit calendar year"))
			return
		}
		year = parsed
	}

	reports, err := h.scenarios.TargetProgress(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// System godoc
// @Summary System metrics snapshot
// @Description Aggregated runtime counters for dashboards
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.metrics == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "metrics are not enabled"))
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
