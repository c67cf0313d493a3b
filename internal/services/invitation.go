package services

import (
	"errors"
	"sort"
	"time"

	"github.com/planhive/planhive/backend/internal/models"
	"gorm.io/gorm"
)

// InvitationService drives the membership state machine: a membership is
// created Invited (accepted=false), transitions to Accepted exactly once,
// or is deleted by Decline.
type InvitationService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewInvitationService(db *gorm.DB, notifier *Notifier) *InvitationService {
	return &InvitationService{db: db, notifier: notifier}
}

// Invitation is the per-user view of a pending membership, annotated with
// the owning entity's kind and descriptive fields.
type Invitation struct {
	Type        models.EntityKind `json:"type"`
	EntityID    uint              `json:"entity_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Label       string            `json:"label,omitempty"`
	ProjectID   uint              `json:"project_id,omitempty"`
	CreatorID   uint              `json:"creator_id"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	CreatedAt   time.Time         `json:"created_at"`
}

// List returns every pending invitation for the user across projects and
// tasks, sorted by the owning entity's creation time, newest first. Pure
// read, no side effects.
func (s *InvitationService) List(userID uint) ([]Invitation, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}

	var invitations []Invitation

	var projects []models.Project
	if err := s.db.
		Joins("JOIN collaborators ON collaborators.entity_kind = ? AND collaborators.entity_id = projects.id", models.KindProject).
		Where("collaborators.user_id = ? AND collaborators.accepted = ?", userID, false).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	for _, p := range projects {
		invitations = append(invitations, Invitation{
			Type:        models.KindProject,
			EntityID:    p.ID,
			Title:       p.Title,
			Description: p.Description,
			Label:       p.Label,
			CreatorID:   p.CreatorID,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			CreatedAt:   p.CreatedAt,
		})
	}

	var tasks []models.Task
	if err := s.db.
		Joins("JOIN collaborators ON collaborators.entity_kind = ? AND collaborators.entity_id = tasks.id", models.KindTask).
		Where("collaborators.user_id = ? AND collaborators.accepted = ?", userID, false).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	for _, t := range tasks {
		invitations = append(invitations, Invitation{
			Type:      models.KindTask,
			EntityID:  t.ID,
			Title:     t.Title,
			ProjectID: t.ProjectID,
			CreatorID: t.CreatorID,
			StartDate: t.StartDate,
			EndDate:   t.EndDate,
			CreatedAt: t.CreatedAt,
		})
	}

	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].CreatedAt.After(invitations[j].CreatedAt)
	})
	return invitations, nil
}

// Accept transitions the user's membership on the entity from Invited to
// Accepted and notifies the entity's other accepted collaborators.
func (s *InvitationService) Accept(kind models.EntityKind, entityID, userID uint) error {
	user, entity, membership, err := s.resolve(kind, entityID, userID)
	if err != nil {
		return err
	}
	if membership.Accepted {
		return newError(KindAlreadyAccepted, "invitation already accepted")
	}

	result := s.db.Model(&models.Collaborator{}).
		Where("id = ? AND accepted = ?", membership.ID, false).
		Update("accepted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to accept invitation")
	}

	s.notifier.CollaboratorAccepted(kind, entityID, entity.Title, user)
	return nil
}

// Decline removes the user's pending membership. Declining an accepted
// membership is rejected; decline only applies to pending invitations.
func (s *InvitationService) Decline(kind models.EntityKind, entityID, userID uint) error {
	user, entity, membership, err := s.resolve(kind, entityID, userID)
	if err != nil {
		return err
	}
	if membership.Accepted {
		return newError(KindAlreadyAccepted, "invitation already accepted")
	}

	result := s.db.Delete(&models.Collaborator{}, membership.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to decline invitation")
	}

	s.notifier.CollaboratorDeclined(kind, entityID, entity.Title, user)
	return nil
}

func (s *InvitationService) resolve(kind models.EntityKind, entityID, userID uint) (*models.User, *entityRef, *models.Collaborator, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, newError(KindNotFound, "user not found")
		}
		return nil, nil, nil, err
	}

	entity, err := findEntity(s.db, kind, entityID)
	if err != nil {
		return nil, nil, nil, err
	}

	var membership models.Collaborator
	if err := s.db.Where("entity_kind = ? AND entity_id = ? AND user_id = ?", kind, entityID, userID).
		First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, newError(KindNotFound, "invitation not found")
		}
		return nil, nil, nil, err
	}

	return &user, entity, &membership, nil
}

func (s *InvitationService) requireUser(userID uint) error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return newError(KindNotFound, "user not found")
	}
	return nil
}
