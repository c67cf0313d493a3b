package services

import (
	"errors"

	"github.com/planhive/planhive/backend/internal/models"
	"github.com/planhive/planhive/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entityRef is the subset of project/task fields membership logic needs.
type entityRef struct {
	Kind      models.EntityKind
	ID        uint
	Title     string
	CreatorID uint
	Completed bool
}

// findEntity loads the owning project or task of a membership.
func findEntity(db *gorm.DB, kind models.EntityKind, id uint) (*entityRef, error) {
	switch kind {
	case models.KindProject:
		var project models.Project
		if err := db.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(KindNotFound, "project does not exist")
			}
			return nil, err
		}
		return &entityRef{Kind: kind, ID: project.ID, Title: project.Title, CreatorID: project.CreatorID, Completed: project.Completed}, nil
	case models.KindTask:
		var task models.Task
		if err := db.First(&task, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, newError(KindNotFound, "task does not exist")
			}
			return nil, err
		}
		return &entityRef{Kind: kind, ID: task.ID, Title: task.Title, CreatorID: task.CreatorID, Completed: task.Completed}, nil
	default:
		return nil, newError(KindValidation, "invalid entity kind %q", kind)
	}
}

// CollaboratorService guards every mutation of a project or task's
// membership list.
type CollaboratorService struct {
	db *gorm.DB
}

func NewCollaboratorService(db *gorm.DB) *CollaboratorService {
	return &CollaboratorService{db: db}
}

// CollaboratorView is a membership with the user's display name resolved.
type CollaboratorView struct {
	UserID   uint   `json:"user_id"`
	Name     string `json:"name"`
	Accepted bool   `json:"accepted"`
}

// Add invites a user to a project or task. The membership starts with
// accepted=false. Duplicate insertion is rejected by the storage layer's
// unique index, so two concurrent adds cannot both succeed.
func (s *CollaboratorService) Add(kind models.EntityKind, entityID, userID uint) (*CollaboratorView, error) {
	entity, err := findEntity(s.db, kind, entityID)
	if err != nil {
		return nil, err
	}
	if entity.Completed {
		return nil, newError(KindEntityCompleted, "%s is already completed", kind)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindUserNotFound, "user does not exist")
		}
		return nil, err
	}

	membership := models.Collaborator{
		EntityKind: kind,
		EntityID:   entityID,
		UserID:     userID,
		Accepted:   false,
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, newError(KindAlreadyCollaborator, "collaborator already added")
	}

	return &CollaboratorView{UserID: user.ID, Name: user.Name, Accepted: false}, nil
}

// Remove deletes a user's membership. For projects this cascades: the
// removed user cannot retain authored or assigned work inside the project.
func (s *CollaboratorService) Remove(kind models.EntityKind, entityID, userID uint) error {
	entity, err := findEntity(s.db, kind, entityID)
	if err != nil {
		return err
	}
	if entity.Completed {
		return newError(KindEntityCompleted, "%s is already completed", kind)
	}
	if kind == models.KindProject && entity.CreatorID == userID {
		return newError(KindValidation, "project creator cannot be removed")
	}

	result := s.db.Where("entity_kind = ? AND entity_id = ? AND user_id = ?", kind, entityID, userID).
		Delete(&models.Collaborator{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindNotFound, "collaborator not found")
	}

	if kind == models.KindProject {
		s.cascadeProjectRemoval(entityID, userID)
	}
	return nil
}

// cascadeProjectRemoval deletes every task under the project created by
// the removed user and strips the user's membership from the remaining
// tasks. It runs after the membership delete has succeeded; a failure
// part-way leaves a partial cascade, which is logged rather than rolled
// back (no multi-document transaction is assumed).
func (s *CollaboratorService) cascadeProjectRemoval(projectID, userID uint) {
	var authoredIDs []uint
	if err := s.db.Model(&models.Task{}).
		Where("project_id = ? AND creator_id = ?", projectID, userID).
		Pluck("id", &authoredIDs).Error; err != nil {
		logger.Warn().Err(err).Uint("project_id", projectID).Uint("user_id", userID).Msg("cascade: authored task lookup failed")
		return
	}

	if len(authoredIDs) > 0 {
		if err := s.db.Where("entity_kind = ? AND entity_id IN ?", models.KindTask, authoredIDs).
			Delete(&models.Collaborator{}).Error; err != nil {
			logger.Warn().Err(err).Uint("project_id", projectID).Msg("cascade: authored task membership cleanup failed")
		}
		if err := s.db.Delete(&models.Task{}, authoredIDs).Error; err != nil {
			logger.Warn().Err(err).Uint("project_id", projectID).Msg("cascade: authored task delete failed")
		}
	}

	var remainingIDs []uint
	if err := s.db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Pluck("id", &remainingIDs).Error; err != nil {
		logger.Warn().Err(err).Uint("project_id", projectID).Msg("cascade: remaining task lookup failed")
		return
	}
	if len(remainingIDs) == 0 {
		return
	}
	if err := s.db.Where("entity_kind = ? AND entity_id IN ? AND user_id = ?", models.KindTask, remainingIDs, userID).
		Delete(&models.Collaborator{}).Error; err != nil {
		logger.Warn().Err(err).Uint("project_id", projectID).Uint("user_id", userID).Msg("cascade: task membership strip failed")
	}
}

// ResolveNames maps each membership on the entity to the user's display
// name, in insertion order. If a membership references a user that no
// longer resolves, the views for the resolvable entries are still
// returned together with an InconsistentReference error; the caller
// decides whether to drop or surface the gap.
func (s *CollaboratorService) ResolveNames(kind models.EntityKind, entityID uint) ([]CollaboratorView, error) {
	var memberships []models.Collaborator
	if err := s.db.Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Order("id ASC").Find(&memberships).Error; err != nil {
		return nil, err
	}

	views := make([]CollaboratorView, 0, len(memberships))
	var missing error
	for _, m := range memberships {
		var user models.User
		if err := s.db.First(&user, m.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				missing = newError(KindInconsistentReference, "collaborator user %d no longer exists", m.UserID)
				continue
			}
			return nil, err
		}
		views = append(views, CollaboratorView{UserID: user.ID, Name: user.Name, Accepted: m.Accepted})
	}
	return views, missing
}

// insertMemberships creates the creator's accepted membership plus pending
// invitations for the given users. Used by project and task creation.
func insertMemberships(db *gorm.DB, kind models.EntityKind, entityID, creatorID uint, invited []uint) error {
	rows := []models.Collaborator{{
		EntityKind: kind,
		EntityID:   entityID,
		UserID:     creatorID,
		Accepted:   true,
	}}
	for _, userID := range invited {
		if userID == creatorID {
			continue
		}
		rows = append(rows, models.Collaborator{
			EntityKind: kind,
			EntityID:   entityID,
			UserID:     userID,
			Accepted:   false,
		})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
