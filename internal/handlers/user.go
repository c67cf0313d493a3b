package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/planhive/planhive/backend/internal/services"
	"github.com/planhive/planhive/backend/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService    *services.UserService
	projectService *services.ProjectService
}

func NewUserHandler(db *gorm.DB, hub *services.Hub) *UserHandler {
	return &UserHandler{
		userService:    services.NewUserService(db, hub),
		projectService: services.NewProjectService(db),
	}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// List returns all registered users
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, users)
}

// GetByID returns a single user
// GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, user)
}

// ListProjects returns the projects a user created or collaborates on
// GET /api/users/:id/projects
func (h *UserHandler) ListProjects(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	projects, err := h.projectService.ListForUser(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, projects)
}

// OnlineCollaborators returns the user's collaborators with a live
// connection right now
// GET /api/users/:id/connections
func (h *UserHandler) OnlineCollaborators(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	users, err := h.userService.OnlineCollaborators(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, users)
}
