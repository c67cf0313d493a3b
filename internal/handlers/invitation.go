package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/planhive/planhive/backend/internal/middleware"
	"github.com/planhive/planhive/backend/internal/models"
	"github.com/planhive/planhive/backend/internal/services"
	"github.com/planhive/planhive/backend/pkg/response"
	"gorm.io/gorm"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(db *gorm.DB, hub *services.Hub) *InvitationHandler {
	return &InvitationHandler{
		invitationService: services.NewInvitationService(db, services.NewNotifier(db, hub)),
	}
}

// List returns the caller's pending invitations, newest entity first
// GET /api/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.invitationService.List(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, invitations)
}

type invitationActionRequest struct {
	Type     models.EntityKind `json:"type" binding:"required"`
	EntityID uint              `json:"entity_id" binding:"required"`
}

// Accept flips the caller's pending membership to accepted and notifies
// the other accepted collaborators
// POST /api/invitations/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req invitationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !req.Type.Valid() {
		response.BadRequest(c, "invalid entity type")
		return
	}

	if err := h.invitationService.Accept(req.Type, req.EntityID, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "invitation accepted"})
}

// Decline deletes the caller's pending membership and notifies the
// accepted collaborators
// POST /api/invitations/decline
func (h *InvitationHandler) Decline(c *gin.Context) {
	var req invitationActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if !req.Type.Valid() {
		response.BadRequest(c, "invalid entity type")
		return
	}

	if err := h.invitationService.Decline(req.Type, req.EntityID, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "invitation declined"})
}
