package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-core/registrar-api/internal/service"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
	"github.com/campus-core/registrar-api/pkg/response"
)

// SettingsHandler exposes the registration window toggle.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetRegistrationWindow godoc
// @Summary Report whether registration is open
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/registration [get]
func (h *SettingsHandler) GetRegistrationWindow(c *gin.Context) {
	open, err := h.settings.IsRegistrationOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"open": open}, nil)
}

// SetRegistrationWindow godoc
// @Summary Open or close the registration window
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Window payload"
// @Success 200 {object} response.Envelope
// @Router /settings/registration [put]
func (h *SettingsHandler) SetRegistrationWindow(c *gin.Context) {
	var req struct {
		Open *bool `json:"open"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Open == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "open flag is required"))
		return
	}
	if err := h.settings.SetRegistrationOpen(c.Request.Context(), *req.Open); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"open": *req.Open}, nil)
}
