package services

import (
	"fmt"

	"github.com/planhive/planhive/backend/internal/models"
	"github.com/planhive/planhive/backend/pkg/logger"
	"gorm.io/gorm"
)

// Notifier fans domain events out to the live connections of an entity's
// accepted collaborators. Delivery is fire-and-forget: a failed or dropped
// send never affects the triggering operation's result.
type Notifier struct {
	db  *gorm.DB
	hub *Hub
}

func NewNotifier(db *gorm.DB, hub *Hub) *Notifier {
	return &Notifier{db: db, hub: hub}
}

// CollaboratorAccepted announces that actor accepted the invitation on the
// given entity.
func (n *Notifier) CollaboratorAccepted(kind models.EntityKind, entityID uint, title string, actor *models.User) {
	message := fmt.Sprintf("%s has accepted the invitation to collaborate on %s", actor.Name, title)
	n.broadcast(kind, entityID, actor.ID, message)
}

// CollaboratorDeclined announces that actor declined the invitation on the
// given entity.
func (n *Notifier) CollaboratorDeclined(kind models.EntityKind, entityID uint, title string, actor *models.User) {
	message := fmt.Sprintf("%s has declined the invitation to collaborate on %s", actor.Name, title)
	n.broadcast(kind, entityID, actor.ID, message)
}

// broadcast computes the audience (accepted collaborators on the entity,
// minus the actor) and pushes the ordered UPDATE_DATA / NOTIFICATION pair
// to each member's live non-service connections.
func (n *Notifier) broadcast(kind models.EntityKind, entityID uint, actorID uint, message string) {
	var memberIDs []uint
	if err := n.db.Model(&models.Collaborator{}).
		Where("entity_kind = ? AND entity_id = ? AND accepted = ? AND user_id != ?", kind, entityID, true, actorID).
		Pluck("user_id", &memberIDs).Error; err != nil {
		logger.Warn().Err(err).Str("kind", string(kind)).Uint("entity_id", entityID).Msg("audience lookup failed, skipping fan-out")
		return
	}

	audience := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		audience[id] = true
	}

	for _, client := range n.hub.Clients() {
		if client.ServiceClient || !audience[client.UserID] {
			continue
		}
		// UPDATE_DATA first so the client re-fetches before acting on the text
		ok := client.Send(Envelope{Type: MsgUpdateData})
		ok = client.Send(Envelope{Type: MsgNotification, Message: message}) && ok
		if !ok {
			logger.Debug().Str("client_id", client.ID).Uint("user_id", client.UserID).Msg("notification dropped for slow client")
		}
	}
}
