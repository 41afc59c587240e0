package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/service"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
	"github.com/campus-core/registrar-api/pkg/response"
)

// CatalogHandler exposes course, prerequisite, and program-plan endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCourses godoc
// @Summary List catalog courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalog.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// GetCourse godoc
// @Summary Get one course
// @Tags Catalog
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalog.GetCourse(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateCourse godoc
// @Summary Create a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.catalog.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body service.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /courses/{code} [put]
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.UpdateCourse(c.Request.Context(), c.Param("code"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 204 "No Content"
// @Router /courses/{code} [delete]
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	ok, err := h.catalog.DeleteCourse(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "course not found"))
		return
	}
	response.NoContent(c)
}

// ListPrerequisites godoc
// @Summary List a course's prerequisites
// @Tags Catalog
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /courses/{code}/prerequisites [get]
func (h *CatalogHandler) ListPrerequisites(c *gin.Context) {
	prereqs, err := h.catalog.ListPrerequisites(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prereqs, nil)
}

// AddPrerequisite godoc
// @Summary Add a prerequisite
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param payload body service.PrerequisiteRequest true "Prerequisite payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{code}/prerequisites [post]
func (h *CatalogHandler) AddPrerequisite(c *gin.Context) {
	var req service.PrerequisiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.AddPrerequisite(c.Request.Context(), c.Param("code"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"course_code": c.Param("code"), "prereq_code": req.PrereqCode})
}

// DeletePrerequisite godoc
// @Summary Remove a prerequisite
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Param prereq path string true "Prerequisite code"
// @Success 204 "No Content"
// @Router /courses/{code}/prerequisites/{prereq} [delete]
func (h *CatalogHandler) DeletePrerequisite(c *gin.Context) {
	ok, err := h.catalog.DeletePrerequisite(c.Request.Context(), c.Param("code"), c.Param("prereq"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found"))
		return
	}
	response.NoContent(c)
}

// ListPlanCourses godoc
// @Summary List program plan courses
// @Tags Catalog
// @Produce json
// @Param program query string false "Program (PWM, BIO, COMM, COMP)"
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *CatalogHandler) ListPlanCourses(c *gin.Context) {
	courses, err := h.catalog.ListPlanCourses(c.Request.Context(), models.Program(c.Query("program")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// AddPlanEntry godoc
// @Summary Assign a course to a program plan
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PlanEntryRequest true "Plan entry payload"
// @Success 201 {object} response.Envelope
// @Router /plans [post]
func (h *CatalogHandler) AddPlanEntry(c *gin.Context) {
	var req service.PlanEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.catalog.AddPlanEntry(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// UpdatePlanLevel godoc
// @Summary Move a plan entry to another level
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program path string true "Program"
// @Param code path string true "Course code"
// @Param payload body object true "Level payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{program}/{code} [put]
func (h *CatalogHandler) UpdatePlanLevel(c *gin.Context) {
	var req struct {
		Level int `json:"level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program := models.Program(c.Param("program"))
	if err := h.catalog.UpdatePlanLevel(c.Request.Context(), program, c.Param("code"), req.Level); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"program": program, "course_code": c.Param("code"), "level": req.Level}, nil)
}

// DeletePlanEntry godoc
// @Summary Remove a course from a program plan
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param program path string true "Program"
// @Param code path string true "Course code"
// @Success 204 "No Content"
// @Router /plans/{program}/{code} [delete]
func (h *CatalogHandler) DeletePlanEntry(c *gin.Context) {
	ok, err := h.catalog.DeletePlanEntry(c.Request.Context(), models.Program(c.Param("program")), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "plan entry not found"))
		return
	}
	response.NoContent(c)
}
