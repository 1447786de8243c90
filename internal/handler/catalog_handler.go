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

// CatalogHandler exposes location and workshop type endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListLocations godoc
// @Summary List locations
// @Tags Catalog
// @Produce json
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	var filter models.LocationFilter
	if active := c.Query("active"); active == "true" || active == "false" {
		v := active == "true"
		filter.Active = &v
	}
	filter.Page, filter.PageSize = pageParams(c)

	locations, total, err := h.catalog.ListLocations(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// GetLocation godoc
// @Summary Get location detail
// @Tags Catalog
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/{id} [get]
func (h *CatalogHandler) GetLocation(c *gin.Context) {
	location, err := h.catalog.GetLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location, nil)
}

// CreateLocation godoc
// @Summary Register a location
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateLocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /locations [post]
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}

	location, err := h.catalog.CreateLocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, location)
}

// UpdateLocation godoc
// @Summary Update a location
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Location ID"
// @Param payload body dto.UpdateLocationRequest true "Location payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/{id} [put]
func (h *CatalogHandler) UpdateLocation(c *gin.Context) {
	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid location payload"))
		return
	}

	location, err := h.catalog.UpdateLocation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location, nil)
}

// ListWorkshopTypes godoc
// @Summary List workshop types
// @Tags Catalog
// @Produce json
// @Param active query bool false "Filter by active state"
// @Param duration_type query string false "Filter by duration type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /workshop-types [get]
func (h *CatalogHandler) ListWorkshopTypes(c *gin.Context) {
	var filter models.WorkshopTypeFilter
	if active := c.Query("active"); active == "true" || active == "false" {
		v := active == "true"
		filter.Active = &v
	}
	filter.DurationType = models.DurationType(c.Query("duration_type"))
	filter.Page, filter.PageSize = pageParams(c)

	types, total, err := h.catalog.ListWorkshopTypes(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// GetWorkshopType godoc
// @Summary Get workshop type detail
// @Description Returns the offering with its allowed locations and prerequisites
// @Tags Catalog
// @Produce json
// @Param id path string true "Workshop type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workshop-types/{id} [get]
func (h *CatalogHandler) GetWorkshopType(c *gin.Context) {
	detail, err := h.catalog.GetWorkshopType(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// CreateWorkshopType godoc
// @Summary Define a workshop type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateWorkshopTypeRequest true "Workshop type payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /workshop-types [post]
func (h *CatalogHandler) CreateWorkshopType(c *gin.Context) {
	var req dto.CreateWorkshopTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workshop type payload"))
		return
	}

	wt, err := h.catalog.CreateWorkshopType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, wt)
}

// UpdateWorkshopType godoc
// @Summary Update a workshop type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Workshop type ID"
// @Param payload body dto.UpdateWorkshopTypeRequest true "Workshop type payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workshop-types/{id} [put]
func (h *CatalogHandler) UpdateWorkshopType(c *gin.Context) {
	var req dto.UpdateWorkshopTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid workshop type payload"))
		return
	}

	wt, err := h.catalog.UpdateWorkshopType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wt, nil)
}
