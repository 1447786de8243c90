package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/internal/service"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
	"github.com/atelierhq/planner-api/pkg/response"
)

// WorkshopHandler exposes workshop planning endpoints.
type WorkshopHandler struct {
	workshops *service.WorkshopService
}

// NewWorkshopHandler constructs the handler.
func NewWorkshopHandler(workshops *service.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{workshops: workshops}
}

// workshopWriteResponse pairs the persisted workshop with the validation
// findings it was checked against, so clients can surface accepted warnings.
type workshopWriteResponse struct {
	Workshop   *models.WorkshopDetail   `json:"workshop"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

// List godoc
// @Summary List workshops
// @Tags Workshops
// @Produce json
// @Param typeId query string false "Filter by workshop type"
// @Param locationId query string false "Filter by location"
// @Param status query string false "Filter by status"
// @Param from query string false "Start date lower bound (YYYY-MM-DD)"
// @Param to query string false "Start date upper bound (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workshops [get]
func (h *WorkshopHandler) List(c *gin.Context) {
	var filter models.WorkshopFilter
	filter.TypeID = c.Query("typeId")
	filter.LocationID = c.Query("locationId")
	if status := c.Query("status"); status != "" {
		v := models.WorkshopStatus(status)
		filter.Status = &v
	}
	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse(queryDateLayout, raw); err == nil {
			filter.From = &t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse(queryDateLayout, raw); err == nil {
			filter.To = &t
		}
	}
	filter.Page, filter.PageSize = pageParams(c)

	workshops, total, err := h.workshops.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshops, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Get workshop detail
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workshops/{id} [get]
func (h *WorkshopHandler) Get(c *gin.Context) {
	workshop, err := h.workshops.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workshop, nil)
}

// Sessions godoc
// @Summary List workshop sessions
// @Tags Workshops
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/sessions [get]
func (h *WorkshopHandler) Sessions(c *gin.Context) {
	sessions, err := h.workshops.Sessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Create godoc
// @Summary Plan a workshop
// @Description Validate and persist a new workshop; warnings block unless force=true
// @Tags Workshops
// @Accept json
// @Produce json
// @Param force query bool false "Accept planning warnings"
// @Param payload body dto.CreateWorkshopRequest true "Workshop payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /workshops [post]
func (h *WorkshopHandler) Create(c *gin.Context) {
	var req dto.CreateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workshop payload"))
		return
	}

	workshop, validation, err := h.workshops.Create(c.Request.Context(), req, forceParam(c))
	if err != nil {
		respondRuleViolation(c, err, validation)
		return
	}
	response.Created(c, workshopWriteResponse{Workshop: workshop, Validation: validation})
}

// Update godoc
// @Summary Update a workshop
// @Description Mutate planning fields; the result is revalidated and warnings block unless force=true
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param force query bool false "Accept planning warnings"
// @Param payload body dto.UpdateWorkshopRequest true "Workshop payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /workshops/{id} [put]
func (h *WorkshopHandler) Update(c *gin.Context) {
	var req dto.UpdateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workshop payload"))
		return
	}

	workshop, validation, err := h.workshops.Update(c.Request.Context(), c.Param("id"), req, forceParam(c))
	if err != nil {
		respondRuleViolation(c, err, validation)
		return
	}
	response.JSON(c, http.StatusOK, workshopWriteResponse{Workshop: workshop, Validation: validation}, nil)
}

// Cancel godoc
// @Summary Cancel a workshop
// @Description Mark a workshop cancelled; already cancelled workshops are left untouched
// @Tags Workshops
// @Param id path string true "Workshop ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workshops/{id} [delete]
func (h *WorkshopHandler) Cancel(c *gin.Context) {
	if err := h.workshops.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func pageParams(c *gin.Context) (int, int) {
	page := 1
	size := 20
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && parsed > 0 {
		page = parsed
	}
	if parsed, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && parsed > 0 {
		size = parsed
	}
	return page, size
}

func forceParam(c *gin.Context) bool {
	return c.Query("force") == "true"
}

// respondRuleViolation attaches validation findings to rule violation errors
// so clients see which checks blocked the write.
func respondRuleViolation(c *gin.Context, err error, validation *models.ValidationResult) {
	appErr := appErrors.FromError(err)
	if validation != nil && appErr.Code == appErrors.ErrRuleViolation.Code {
		c.JSON(appErr.Status, response.Envelope{
			Error: appErr,
			Data:  validation,
		})
		return
	}
	response.Error(c, err)
}
