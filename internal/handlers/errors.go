package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/planhive/planhive/backend/internal/services"
	"github.com/planhive/planhive/backend/pkg/response"
)

// respondError maps a domain error to the HTTP response surface:
// validation and precondition failures are 400, missing entities 404,
// duplicate/terminal memberships 409, and zero-effect writes 500.
func respondError(c *gin.Context, err error) {
	switch services.KindOf(err) {
	case services.KindValidation, services.KindEntityCompleted, services.KindDateConflict:
		response.BadRequest(c, err.Error())
	case services.KindNotFound, services.KindUserNotFound:
		response.NotFound(c, err.Error())
	case services.KindAlreadyCollaborator, services.KindAlreadyAccepted:
		response.Conflict(c, err.Error())
	default:
		response.ServerError(c, err.Error())
	}
}
