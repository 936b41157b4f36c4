package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/huangang/projectdesk/internal/middleware"
	"github.com/huangang/projectdesk/internal/models"
	"github.com/huangang/projectdesk/internal/services"
	"github.com/huangang/projectdesk/pkg/logger"
	"github.com/huangang/projectdesk/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projects}
}

// List returns projects with display names, optionally for one owner.
// Fetch errors yield an empty list.
// GET /api/projects?owner_id=
func (h *ProjectHandler) List(c *gin.Context) {
	var filter services.ProjectFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), &filter)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list projects")
	}
	response.Success(c, services.NewProjectViews(projects))
}

// GetByID
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, projectError(err))
		return
	}
	response.Success(c, services.NewProjectView(project))
}

// Create stores a project owned by the caller.
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	creator := &models.Profile{
		ID:       middleware.GetUserID(c),
		Username: middleware.GetUsername(c),
		Role:     middleware.GetRole(c),
	}
	project, err := h.projectService.Create(c.Request.Context(), &req, creator)
	if err != nil {
		response.Error(c, projectError(err))
		return
	}
	response.Created(c, services.NewProjectView(project))
}

// Update changes the fields present in the body.
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.Error(c, projectError(err))
		return
	}
	response.Success(c, services.NewProjectView(project))
}

// Delete
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, projectError(err))
		return
	}
	response.Success(c, gin.H{"message": "proyecto eliminado"})
}

func projectError(err error) error {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		return response.NewNotFound("proyecto no encontrado")
	case errors.Is(err, services.ErrProjectIncomplete):
		return response.NewBadRequest(services.MsgFormIncomplete)
	}
	return err
}
