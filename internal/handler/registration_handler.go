package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/service"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
	"github.com/campus-core/registrar-api/pkg/response"
)

// RegistrationHandler exposes registration and withdrawal endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

type registerPayload struct {
	StudentID int64  `json:"student_id"`
	SectionID int64  `json:"section_id"`
	Semester  string `json:"semester"`
}

// Students always act on their own behalf; staff may supply any student.
func resolveStudentID(c *gin.Context, requested int64) (int64, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return 0, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleStudent {
		if requested != 0 && requested != claims.UserID {
			return 0, appErrors.Clone(appErrors.ErrForbidden, "students can only manage their own registrations")
		}
		return claims.UserID, nil
	}
	if requested == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	return requested, nil
}

// Register godoc
// @Summary Register for a section
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body registerPayload true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var payload registerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID, err := resolveStudentID(c, payload.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := service.RegisterRequest{StudentID: studentID, SectionID: payload.SectionID, Semester: payload.Semester}
	if err := h.registrations.Register(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"student_id": studentID, "section_id": payload.SectionID, "semester": payload.Semester})
}

// Withdraw godoc
// @Summary Withdraw from a course
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param course path string true "Course code"
// @Param student_id query int false "Student (staff only)"
// @Success 204 "No Content"
// @Router /registrations/{course} [delete]
func (h *RegistrationHandler) Withdraw(c *gin.Context) {
	requested, _ := strconv.ParseInt(c.Query("student_id"), 10, 64)
	studentID, err := resolveStudentID(c, requested)
	if err != nil {
		response.Error(c, err)
		return
	}
	removed, err := h.registrations.Withdraw(c.Request.Context(), studentID, c.Param("course"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !removed {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "registration not found"))
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param student_id query int false "Filter by student"
// @Param course query string false "Filter by course"
// @Param semester query string false "Filter by semester"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	var filter models.RegistrationFilter
	filter.StudentID, _ = strconv.ParseInt(c.Query("student_id"), 10, 64)
	filter.CourseCode = c.Query("course")
	filter.Semester = c.Query("semester")

	registrations, err := h.registrations.ListRegistrations(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// CheckConflict godoc
// @Summary Screen a section against the student's schedule
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param section_id query int true "Candidate section"
// @Param student_id query int false "Student (staff only)"
// @Success 200 {object} response.Envelope
// @Router /registrations/conflict [get]
func (h *RegistrationHandler) CheckConflict(c *gin.Context) {
	sectionID, err := strconv.ParseInt(c.Query("section_id"), 10, 64)
	if err != nil || sectionID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section_id is required"))
		return
	}
	requested, _ := strconv.ParseInt(c.Query("student_id"), 10, 64)
	studentID, err := resolveStudentID(c, requested)
	if err != nil {
		response.Error(c, err)
		return
	}
	conflict, err := h.registrations.HasTimeConflict(c.Request.Context(), studentID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"conflict": conflict}, nil)
}
