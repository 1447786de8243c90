package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/planner-api/internal/dto"
	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/internal/service"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
	"github.com/atelierhq/planner-api/pkg/response"
)

// TeamHandler exposes people and assignment endpoints.
type TeamHandler struct {
	team *service.TeamService
}

// NewTeamHandler constructs the handler.
func NewTeamHandler(team *service.TeamService) *TeamHandler {
	return &TeamHandler{team: team}
}

type personDetailResponse struct {
	Person           *models.Person `json:"person"`
	QualifiedTypeIDs []string       `json:"qualifiedTypeIds"`
}

type assignmentWriteResponse struct {
	Assignment *models.Assignment       `json:"assignment"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

// ListPeople godoc
// @Summary List people
// @Tags Team
// @Produce json
// @Param type query string false "Filter by person type"
// @Param active query bool false "Filter by active state"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /people [get]
func (h *TeamHandler) ListPeople(c *gin.Context) {
	var filter models.PersonFilter
	if raw := c.Query("type"); raw != "" {
		v := models.PersonType(raw)
		filter.Type = &v
	}
	if active := c.Query("active"); active == "true" || active == "false" {
		v := active == "true"
		filter.Active = &v
	}
	filter.Search = c.Query("search")
	filter.Page, filter.PageSize = pageParams(c)

	people, total, err := h.team.ListPeople(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, people, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// GetPerson godoc
// @Summary Get person detail
// @Tags Team
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /people/{id} [get]
func (h *TeamHandler) GetPerson(c *gin.Context) {
	person, qualifications, err := h.team.GetPerson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, personDetailResponse{
		Person:           person,
		QualifiedTypeIDs: qualifications,
	}, nil)
}

// CreatePerson godoc
// @Summary Register a person
// @Tags Team
// @Accept json
// @Produce json
// @Param payload body dto.CreatePersonRequest true "Person payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /people [post]
func (h *TeamHandler) CreatePerson(c *gin.Context) {
	var req dto.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid person payload"))
		return
	}

	person, err := h.team.CreatePerson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, person)
}

// UpdatePerson godoc
// @Summary Update a person
// @Tags Team
// @Accept json
// @Produce json
// @Param id path string true "Person ID"
// @Param payload body dto.UpdatePersonRequest true "Person payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /people/{id} [put]
func (h *TeamHandler) UpdatePerson(c *gin.Context) {
	var req dto.UpdatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid person payload"))
		return
	}

	person, err := h.team.UpdatePerson(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// DeactivatePerson godoc
// @Summary Deactivate a person
// @Tags Team
// @Param id path string true "Person ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /people/{id} [delete]
func (h *TeamHandler) DeactivatePerson(c *gin.Context) {
	if err := h.team.DeactivatePerson(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PersonAssignments godoc
// @Summary List a person's assignments
// @Tags Team
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /people/{id}/assignments [get]
func (h *TeamHandler) PersonAssignments(c *gin.Context) {
	assignments, err := h.team.PersonAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// WorkshopAssignments godoc
// @Summary List a workshop's assignments
// @Tags Team
// @Produce json
// @Param id path string true "Workshop ID"
// @Success 200 {object} response.Envelope
// @Router /workshops/{id}/assignments [get]
func (h *TeamHandler) WorkshopAssignments(c *gin.Context) {
	assignments, err := h.team.WorkshopAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateAssignment godoc
// @Summary Assign a person to a workshop
// @Description Validate and persist a staff assignment; warnings block unless force=true
// @Tags Team
// @Accept json
// @Produce json
// @Param force query bool false "Accept planning warnings"
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assignments [post]
func (h *TeamHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, validation, err := h.team.CreateAssignment(c.Request.Context(), req, forceParam(c))
	if err != nil {
		respondRuleViolation(c, err, validation)
		return
	}
	response.Created(c, assignmentWriteResponse{Assignment: assignment, Validation: validation})
}

// UpdateAssignment godoc
// @Summary Answer or annotate an assignment
// @Tags Team
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *TeamHandler) UpdateAssignment(c *gin.Context) {
	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, err := h.team.UpdateAssignmentStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// DeleteAssignment godoc
// @Summary Remove an assignment
// @Tags Team
// @Param id path string true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [delete]
func (h *TeamHandler) DeleteAssignment(c *gin.Context) {
	if err := h.team.DeleteAssignment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
