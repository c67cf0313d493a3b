package services

import (
	"errors"
	"time"

	"github.com/planhive/planhive/backend/internal/models"
	"gorm.io/gorm"
)

type TaskService struct {
	db            *gorm.DB
	collaborators *CollaboratorService
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{
		db:            db,
		collaborators: NewCollaboratorService(db),
	}
}

type CreateTaskRequest struct {
	Title         string    `json:"title" binding:"required"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date" binding:"required"`
	Collaborators []uint    `json:"collaborators"`
}

// TaskView is a task with its collaborator list resolved to display names.
type TaskView struct {
	models.Task
	Collaborators []CollaboratorView `json:"collaborators"`
}

// Create validates the request and persists a new task under the project.
// The task's window must nest inside the project's window. The creator is
// inserted as an accepted collaborator; listed users are invited.
func (s *TaskService) Create(projectID uint, req *CreateTaskRequest, creatorID uint) (*TaskView, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "project does not exist")
		}
		return nil, err
	}
	if project.Completed {
		return nil, newError(KindEntityCompleted, "project is already completed")
	}

	if req.StartDate.After(req.EndDate) {
		return nil, newError(KindValidation, "start date cannot be after end date")
	}
	if req.StartDate.Before(project.StartDate) || req.EndDate.After(project.EndDate) {
		return nil, newError(KindDateConflict, "task dates must lie within the project dates")
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

	task := models.Task{
		ProjectID: projectID,
		Title:     req.Title,
		CreatorID: creatorID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    models.TaskStatusOpen,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	if err := insertMemberships(s.db, models.KindTask, task.ID, creatorID, req.Collaborators); err != nil {
		return nil, err
	}

	return s.GetByID(task.ID)
}

// GetByID returns a task with resolved collaborators. Memberships whose
// user no longer resolves are dropped from the view.
func (s *TaskService) GetByID(id uint) (*TaskView, error) {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "task does not exist")
		}
		return nil, err
	}

	views, err := s.collaborators.ResolveNames(models.KindTask, task.ID)
	if err != nil && !IsKind(err, KindInconsistentReference) {
		return nil, err
	}
	return &TaskView{Task: task, Collaborators: views}, nil
}

// ListByProject returns every task under the project.
func (s *TaskService) ListByProject(projectID uint) ([]models.Task, error) {
	var count int64
	if err := s.db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, newError(KindNotFound, "project does not exist")
	}

	var tasks []models.Task
	if err := s.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListForUser returns the tasks inside a project the user created plus
// those where the user is an accepted collaborator, deduplicated.
func (s *TaskService) ListForUser(projectID, userID uint) ([]models.Task, error) {
	var count int64
	if err := s.db.Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, newError(KindNotFound, "project does not exist")
	}

	var tasks []models.Task
	if err := s.db.
		Where("project_id = ?", projectID).
		Where(s.db.Where("creator_id = ?", userID).
			Or("id IN (?)", s.db.Model(&models.Collaborator{}).
				Select("entity_id").
				Where("entity_kind = ? AND user_id = ? AND accepted = ?", models.KindTask, userID, true))).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update edits the task title. Completed tasks are immutable.
func (s *TaskService) Update(id uint, title string) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(KindNotFound, "task does not exist")
		}
		return nil, err
	}
	if task.Completed {
		return nil, newError(KindEntityCompleted, "task is already completed")
	}
	if title == "" {
		return nil, newError(KindValidation, "please provide a title")
	}

	result := s.db.Model(&task).Update("title", title)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, newError(KindWriteFailed, "failed to update task")
	}
	return &task, nil
}

// Delete removes a task and its membership rows.
func (s *TaskService) Delete(id uint) error {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "task does not exist")
		}
		return err
	}
	if task.Completed {
		return newError(KindEntityCompleted, "task is already completed")
	}

	if err := s.db.Where("entity_kind = ? AND entity_id = ?", models.KindTask, id).
		Delete(&models.Collaborator{}).Error; err != nil {
		return err
	}

	result := s.db.Delete(&models.Task{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to delete task")
	}
	return nil
}

// SetCompleted sets the task's completion flag.
func (s *TaskService) SetCompleted(id uint, completed bool) error {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "task does not exist")
		}
		return err
	}

	result := s.db.Model(&task).Update("completed", completed)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// SetStatus updates the status field used for progress aggregation.
func (s *TaskService) SetStatus(id uint, status string) error {
	switch status {
	case models.TaskStatusOpen, models.TaskStatusInProgress, models.TaskStatusCompleted:
	default:
		return newError(KindValidation, "invalid status %q", status)
	}

	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "task does not exist")
		}
		return err
	}
	if task.Completed {
		return newError(KindEntityCompleted, "task is already completed")
	}

	result := s.db.Model(&task).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to update status")
	}
	return nil
}

// SetDate updates the task's start or end date. Completed tasks are
// immutable and the new window must stay inside the project's window.
func (s *TaskService) SetDate(id uint, kind string, date time.Time) error {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "task does not exist")
		}
		return err
	}
	if task.Completed {
		return newError(KindEntityCompleted, "task is already completed")
	}
	if kind != "start" && kind != "end" {
		return newError(KindValidation, "invalid date type %q", kind)
	}

	var project models.Project
	if err := s.db.First(&project, task.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindInconsistentReference, "owning project %d no longer exists", task.ProjectID)
		}
		return err
	}

	if kind == "start" {
		if date.Before(project.StartDate) {
			return newError(KindDateConflict, "task cannot start before the project starts")
		}
		if date.After(task.EndDate) {
			return newError(KindValidation, "start date cannot be after end date")
		}
	} else {
		if date.After(project.EndDate) {
			return newError(KindDateConflict, "task cannot end after the project ends")
		}
		if date.Before(task.StartDate) {
			return newError(KindValidation, "start date cannot be after end date")
		}
	}

	column := "start_date"
	if kind == "end" {
		column = "end_date"
	}
	result := s.db.Model(&task).Update(column, date)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return newError(KindWriteFailed, "failed to update date")
	}
	return nil
}
