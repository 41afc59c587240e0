package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/service"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
	"github.com/campus-core/registrar-api/pkg/response"
)

// TranscriptHandler exposes grading endpoints for staff.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs TranscriptHandler.
func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// Finalize godoc
// @Summary Record a grade and retire the registration
// @Tags Transcripts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /transcripts/finalize [post]
func (h *TranscriptHandler) Finalize(c *gin.Context) {
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.transcripts.FinalizeGrade(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"finalized": true}, nil)
}

// UpdateGrade godoc
// @Summary Correct a recorded grade
// @Tags Transcripts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /transcripts/grade [put]
func (h *TranscriptHandler) UpdateGrade(c *gin.Context) {
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.transcripts.UpdateGrade(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": true}, nil)
}

// AddEntry godoc
// @Summary Import a historical transcript entry
// @Tags Transcripts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.TranscriptEntry true "Transcript entry"
// @Success 201 {object} response.Envelope
// @Router /transcripts [post]
func (h *TranscriptHandler) AddEntry(c *gin.Context) {
	var entry models.TranscriptEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.transcripts.AddEntry(c.Request.Context(), entry); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}
