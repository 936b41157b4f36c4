package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/pkg/logger"
	"github.com/huangang/projectdesk/pkg/response"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profiles}
}

// List returns the profiles with one role, for the form selects.
// GET /api/profiles?role=
func (h *ProfileHandler) List(c *gin.Context) {
	h.listByRole(c, c.Query("role"))
}

// Designers
// GET /api/profiles/designers
func (h *ProfileHandler) Designers(c *gin.Context) {
	h.listByRole(c, models.RoleDesigner)
}

func (h *ProfileHandler) listByRole(c *gin.Context, role string) {
	if !models.IsValidRole(role) {
		response.BadRequest(c, "rol inválido")
		return
	}

	profiles, err := h.profileService.ListByRole(c.Request.Context(), role)
	if err != nil {
		logger.Error().Err(err).Str("role", role).Msg("failed to list profiles")
		profiles = []models.Profile{}
	}
	response.Success(c, profiles)
}
