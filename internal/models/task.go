package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusArchived   = "archived"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

var validStatuses = map[string]bool{
	StatusTodo:       true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusArchived:   true,
}

var validPriorities = map[string]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

func IsValidStatus(s string) bool   { return validStatuses[s] }
func IsValidPriority(p string) bool { return validPriorities[p] }

type Tag struct {
	ID   uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name string    `json:"name" gorm:"unique;not null"`
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" gorm:"not null;index"`
	Description string     `json:"description"`
	Status      string     `json:"status" gorm:"not null;default:'todo';index"`
	Priority    string     `json:"priority" gorm:"not null;default:'medium';index"`
	CreatedBy   uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`
	AssignedTo  *uuid.UUID `json:"assigned_to" gorm:"type:uuid;index"`
	Tags        []Tag      `json:"tags" gorm:"many2many:task_tags;"`
	DueDate     *time.Time `json:"due_date" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	IsDeleted   bool       `json:"is_deleted" gorm:"not null;default:false;index"`
	DeletedAt   *time.Time `json:"deleted_at"`
}
