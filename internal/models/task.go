package models

import (
	"time"

	"gorm.io/gorm"
)

// Task status values used for progress aggregation.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task belongs to a project. Its scheduling window must lie inside the
// owning project's window.
type Task struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"index;not null" json:"project_id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	CreatorID uint           `gorm:"index;not null" json:"creator_id"`
	StartDate time.Time      `gorm:"not null" json:"start_date"`
	EndDate   time.Time      `gorm:"not null" json:"end_date"`
	Status    string         `gorm:"size:50;default:open" json:"status"`
	Completed bool           `gorm:"default:false" json:"completed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }
