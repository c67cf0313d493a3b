package services

import (
	"errors"

	"github.com/planhive/planhive/backend/internal/models"
	"gorm.io/gorm"
)

// UserService is the user directory: lookups by id and the derived view
// of which of a user's co-collaborators are currently online.
type UserService struct {
	db  *gorm.DB
	hub *Hub
}

func NewUserService(db *gorm.DB, hub *Hub) *UserService {
	return &UserService{db: db, hub: hub}
}

// List returns all users. Credential fields are never serialized.
func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID returns a single user.
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// OnlineCollaborators returns the users who share an accepted collaboration
// with the given user (on any of their projects or tasks) and currently
// hold a live, non-service connection.
func (s *UserService) OnlineCollaborators(userID uint) ([]models.User, error) {
	if _, err := s.GetByID(userID); err != nil {
		return nil, err
	}

	entityIDs := func(kind models.EntityKind, table, creatorColumn string) *gorm.DB {
		// Entities the user created or accepted membership on
		return s.db.Table(table).Select("id").
			Where(creatorColumn+" = ?", userID).
			Or("id IN (?)", s.db.Model(&models.Collaborator{}).
				Select("entity_id").
				Where("entity_kind = ? AND user_id = ? AND accepted = ?", kind, userID, true))
	}

	var collaboratorIDs []uint
	if err := s.db.Model(&models.Collaborator{}).
		Where("accepted = ? AND user_id != ?", true, userID).
		Where(
			s.db.Where("entity_kind = ? AND entity_id IN (?)", models.KindProject, entityIDs(models.KindProject, "projects", "creator_id")).
				Or("entity_kind = ? AND entity_id IN (?)", models.KindTask, entityIDs(models.KindTask, "tasks", "creator_id")),
		).
		Distinct().
		Pluck("user_id", &collaboratorIDs).Error; err != nil {
		return nil, err
	}

	live := s.hub.LiveUserIDs()
	online := make([]uint, 0, len(collaboratorIDs))
	for _, id := range collaboratorIDs {
		if live[id] {
			online = append(online, id)
		}
	}
	if len(online) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", online).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
