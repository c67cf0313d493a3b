package services

import (
	"errors"
	"time"

	"github.com/planhive/planhive/backend/internal/models"
	"gorm.io/gorm"
)

type ProjectService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{
		db:            db,
		collaborators: NewCollaboratorService(db),
	}
}

type CreateProjectRequest struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description" binding:"required"`
	Label         string    `json:"label" binding:"required"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date" binding:"required"`
	Collaborators []uint    `json:"collaborators"`
}

type UpdateProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Label       string `json:"label" binding:"required"`
}

// ProjectView is a project with its collaborator list resolved to
// display names.
type ProjectView struct {
	models.Project
	Collaborators []CollaboratorView `json:"collaborators"`
}

// Create validates the request and persists a new project. The creator is
// always inserted as an accepted collaborator; listed users are invited.
func (s *ProjectService) Create(req *CreateProjectRequest, creatorID uint) (*ProjectView, error) {
	if req.StartDate.After(req.EndDate) {
		return nil, newError(KindValidation, "start date cannot be after end date")
	}

	for _, userID := range req.Collaborators {
		var count int64
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, newError(KindUserNotFound, "user does not exist")
		}
	}

	project := models.Project{
		Title:       req.Title,
		Description: req.Description,
		Label:       req.Label,
		CreatorID:   creatorID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}

	if err := insertMemberships(s.db, models.KindProject, project.ID, creatorID, req.Collaborators); err != nil {
		return nil, err
	}

	return s.GetByID(project.ID)
}

// GetByID returns a project with resolved collaborators. Memberships whose
// user no longer resolves are dropped from the view.
func (s *ProjectService) GetByID(id uint) (*ProjectView, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "project does not exist")
		}
		return nil, err
	}

	views, err := s.collaborators.ResolveNames(models.KindProject, project.ID)
	if err != nil && !IsKind(err, KindInconsistentReference) {
		return nil, err
	}
	return &ProjectView{Project: project, Collaborators: views}, nil
}

// List returns all projects with resolved collaborators.
func (s *ProjectService) List() ([]ProjectView, error) {
	var projects []models.Project
	if err := s.db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		collaborators, err := s.collaborators.ResolveNames(models.KindProject, p.ID)
		if err != nil && !IsKind(err, KindInconsistentReference) {
			return nil, err
		}
		views = append(views, ProjectView{Project: p, Collaborators: collaborators})
	}
	return views, nil
}

// ListForUser returns the projects the user created plus those where the
// user is an accepted collaborator, deduplicated. A pending invitation
// does not qualify.
func (s *ProjectService) ListForUser(userID uint) ([]models.Project, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, newError(KindNotFound, "user does not exist")
	}

	var projects []models.Project
	if err := s.db.
		Where("creator_id = ?", userID).
		Or("id IN (?)", s.db.Model(&models.Collaborator{}).
			Select("entity_id").
			Where("entity_kind = ? AND user_id = ? AND accepted = ?", models.KindProject, userID, true)).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update edits title, description and label. Completed projects are
// immutable.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "project does not exist")
		}
		return nil, err
	}
	if project.Completed {
		return nil, newError(KindEntityCompleted, "project is already completed")
	}

	result := s.db.Model(&project).Updates(map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"label":       req.Label,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, newError(KindWriteFailed, "failed to update project")
	}
	return &project, nil
}

// Delete removes a project and its membership rows. Tasks are not
// cascade-deleted here; they are owned rows reachable only through the
// project and cleaned up by their own operations.
func (s *ProjectService) Delete(id uint) error {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "project does not exist")
		}
		return err
	}
	if project.Completed {
		return newError(KindEntityCompleted, "project is already completed")
	}

	if err := s.db.Where("entity_kind = ? AND entity_id = ?", models.KindProject, id).
		Delete(&models.Collaborator{}).Error; err != nil {
		return err
	}

	result := s.db.Delete(&models.Project{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to delete project")
	}
	return nil
}

// SetCompleted sets the completion flag. Completing a project cascades to
// every task under it: a project cannot be done while its tasks remain
// open in the data.
func (s *ProjectService) SetCompleted(id uint, completed bool) error {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "project does not exist")
		}
		return err
	}

	result := s.db.Model(&project).Update("completed", completed)
	if result.Error != nil {
		return result.Error
	}

	if completed {
		s.cascadeCompletion(id)
	}
	return nil
}

// cascadeCompletion marks every task under the project completed. Invoked
// synchronously after the project update; a failure leaves a partial
// cascade which surfaces in the storage layer rather than being rolled back.
func (s *ProjectService) cascadeCompletion(projectID uint) {
	s.db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Update("completed", true)
}

// SetDate updates the project's start or end date. The new window must
// still contain every child task's window.
func (s *ProjectService) SetDate(id uint, kind string, date time.Time) error {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "project does not exist")
		}
		return err
	}
	if project.Completed {
		return newError(KindEntityCompleted, "project is already completed")
	}
	if kind != "start" && kind != "end" {
		return newError(KindValidation, "invalid date type %q", kind)
	}

	var tasks []models.Task
	if err := s.db.Where("project_id = ?", id).Find(&tasks).Error; err != nil {
		return err
	}
	for _, task := range tasks {
		if kind == "start" && date.After(task.StartDate) {
			return newError(KindDateConflict, "project cannot start after a task has started")
		}
		if kind == "end" && date.Before(task.EndDate) {
			return newError(KindDateConflict, "project cannot end before a task has ended")
		}
	}

	column := "start_date"
	if kind == "end" {
		column = "end_date"
	}
	result := s.db.Model(&project).Update(column, date)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to update date")
	}
	return nil
}

// Progress returns the project's completion percentage: tasks with status
// completed over total tasks. With zero tasks the percentage is undefined
// and ok is false.
func (s *ProjectService) Progress(id uint) (progress float64, ok bool, err error) {
	var count int64
	if err := s.db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, newError(KindNotFound, "project does not exist")
	}

	var total, completed int64
	if err := s.db.Model(&models.Task{}).Where("project_id = ?", id).Count(&total).Error; err != nil {
		return 0, false, err
	}
	if total == 0 {
		return 0, false, nil
	}
	if err := s.db.Model(&models.Task{}).
		Where("project_id = ? AND status = ?", id, models.TaskStatusCompleted).
		Count(&completed).Error; err != nil {
		return 0, false, err
	}

	return float64(completed) / float64(total) * 100, true, nil
}
