package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planhive/planhive/backend/internal/middleware"
	"github.com/planhive/planhive/backend/internal/models"
	"github.com/planhive/planhive/backend/internal/services"
	"github.com/planhive/planhive/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService      *services.ProjectService
	collaboratorService *services.CollaboratorService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService:      services.NewProjectService(db),
		collaboratorService: services.NewCollaboratorService(db),
	}
}

// Create creates a project with the caller as accepted collaborator
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, project)
}

// List returns all projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, projects)
}

// GetByID returns a project with its collaborators resolved
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, project)
}

// Update edits a project's title, description and label
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, project)
}

// Delete removes a project and its membership rows
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "project deleted"})
}

// SetCompleted marks a project completed or reopens it. Completing a
// project completes all of its tasks.
// PATCH /api/projects/:id/completed
func (h *ProjectHandler) SetCompleted(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Completed *bool `json:"completed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.projectService.SetCompleted(id, *req.Completed); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"completed": *req.Completed})
}

// SetDate moves one boundary of the project's window
// PATCH /api/projects/:id/date
func (h *ProjectHandler) SetDate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Type string    `json:"type" binding:"required"`
		Date time.Time `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.projectService.SetDate(id, req.Type, req.Date); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"type": req.Type, "date": req.Date})
}

// Progress returns the fraction of completed tasks. With zero tasks the
// value is undefined and defined=false.
// GET /api/projects/:id/progress
func (h *ProjectHandler) Progress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	progress, defined, err := h.projectService.Progress(id)
	if err != nil {
		respondError(c, err)
		return
	}

	if !defined {
		// No tasks yet: progress is undefined, not 0 or 100
		response.Success(c, gin.H{"progress": nil, "defined": false})
		return
	}
	response.Success(c, gin.H{"progress": progress, "defined": true})
}

// AddCollaborator invites a user to the project
// POST /api/projects/:id/collaborators
func (h *ProjectHandler) AddCollaborator(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	view, err := h.collaboratorService.Add(models.KindProject, id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, view)
}

// RemoveCollaborator removes a user's membership and cascades over the
// project's tasks
// DELETE /api/projects/:id/collaborators/:userId
func (h *ProjectHandler) RemoveCollaborator(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	if err := h.collaboratorService.Remove(models.KindProject, id, userID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "collaborator removed"})
}

// ListCollaborators returns the project's collaborators with names resolved
// GET /api/projects/:id/collaborators
func (h *ProjectHandler) ListCollaborators(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	views, err := h.collaboratorService.ResolveNames(models.KindProject, id)
	if err != nil && !services.IsKind(err, services.KindInconsistentReference) {
		respondError(c, err)
		return
	}

	response.Success(c, views)
}
