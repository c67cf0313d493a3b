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

type TaskHandler struct {
	taskService         *services.TaskService
	collaboratorService *services.CollaboratorService
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{
		taskService:         services.NewTaskService(db),
		collaboratorService: services.NewCollaboratorService(db),
	}
}

// Create creates a task inside a project's window
// POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(projectID, &req, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, task)
}

// ListByProject returns a project's tasks, optionally narrowed to the
// ones the caller created or accepted
// GET /api/projects/:id/tasks?mine=true
func (h *TaskHandler) ListByProject(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var (
		tasks []models.Task
		err   error
	)
	if c.Query("mine") == "true" {
		tasks, err = h.taskService.ListForUser(projectID, middleware.GetUserID(c))
	} else {
		tasks, err = h.taskService.ListByProject(projectID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, tasks)
}

// GetByID returns a task with its collaborators resolved
// GET /api/tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, task)
}

// Update renames a task
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(id, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, task)
}

// Delete removes a task and its membership rows
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "task deleted"})
}

// SetCompleted marks a task completed or reopens it
// PATCH /api/tasks/:id/completed
func (h *TaskHandler) SetCompleted(c *gin.Context) {
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

	if err := h.taskService.SetCompleted(id, *req.Completed); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"completed": *req.Completed})
}

// SetStatus moves a task through open, in_progress, completed
// PATCH /api/tasks/:id/status
func (h *TaskHandler) SetStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.SetStatus(id, req.Status); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"status": req.Status})
}

// SetDate moves one boundary of the task's window, which must stay
// inside the project's window
// PATCH /api/tasks/:id/date
func (h *TaskHandler) SetDate(c *gin.Context) {
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

	if err := h.taskService.SetDate(id, req.Type, req.Date); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"type": req.Type, "date": req.Date})
}

// AddCollaborator invites a user to the task
// POST /api/tasks/:id/collaborators
func (h *TaskHandler) AddCollaborator(c *gin.Context) {
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

	view, err := h.collaboratorService.Add(models.KindTask, id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, view)
}

// RemoveCollaborator removes a user's task membership
// DELETE /api/tasks/:id/collaborators/:userId
func (h *TaskHandler) RemoveCollaborator(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	if err := h.collaboratorService.Remove(models.KindTask, id, userID); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "collaborator removed"})
}
