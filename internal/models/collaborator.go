package models

import (
	"time"
)

// EntityKind discriminates which entity a collaborator row belongs to.
type EntityKind string

const (
	KindProject EntityKind = "project"
	KindTask    EntityKind = "task"
)

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	return k == KindProject || k == KindTask
}

// Collaborator binds a user to a project or task. Accepted is false while
// the invitation is pending. The composite unique index makes membership
// insertion an atomic insert-if-absent at the storage layer.
type Collaborator struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EntityKind EntityKind `gorm:"uniqueIndex:idx_entity_user;size:20;not null" json:"entity_kind"`
	EntityID   uint       `gorm:"uniqueIndex:idx_entity_user;not null" json:"entity_id"`
	UserID     uint       `gorm:"uniqueIndex:idx_entity_user;not null" json:"user_id"`
	Accepted   bool       `gorm:"default:false" json:"accepted"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Collaborator) TableName() string { return "collaborators" }
