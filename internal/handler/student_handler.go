package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-core/registrar-api/internal/service"
	"github.com/campus-core/registrar-api/pkg/response"
)

// StudentHandler exposes the student-facing read endpoints: eligible
// courses, schedule, transcript, and their exports.
type StudentHandler struct {
	eligibility   *service.EligibilityService
	registrations *service.RegistrationService
	transcripts   *service.TranscriptService
	exports       *service.ExportService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(
	eligibility *service.EligibilityService,
	registrations *service.RegistrationService,
	transcripts *service.TranscriptService,
	exports *service.ExportService,
) *StudentHandler {
	return &StudentHandler{
		eligibility:   eligibility,
		registrations: registrations,
		transcripts:   transcripts,
		exports:       exports,
	}
}

// AvailableCourses godoc
// @Summary List courses the student can register for
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param semester query string true "Target semester"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/available-courses [get]
func (h *StudentHandler) AvailableCourses(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.eligibility.AvailableCourses(c.Request.Context(), id, c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Schedule godoc
// @Summary List the student's registered sections
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/schedule [get]
func (h *StudentHandler) Schedule(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	sections, err := h.registrations.StudentSchedule(c.Request.Context(), id, c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Transcript godoc
// @Summary Get the student's transcript
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *StudentHandler) Transcript(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.transcripts.GetTranscript(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportTranscript godoc
// @Summary Download the transcript as CSV or PDF
// @Tags Students
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /students/{id}/transcript/export [get]
func (h *StudentHandler) ExportTranscript(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.exports.ExportTranscript(c.Request.Context(), id, service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDocument(c, doc)
}

// ExportSchedule godoc
// @Summary Download the weekly schedule as CSV or PDF
// @Tags Students
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param semester query string true "Semester"
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /students/{id}/schedule/export [get]
func (h *StudentHandler) ExportSchedule(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.exports.ExportSchedule(c.Request.Context(), id, c.Query("semester"), service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDocument(c, doc)
}

func serveDocument(c *gin.Context, doc *service.ExportDocument) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
