package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `json:"author" gorm:"type:uuid;not null;index"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"-" gorm:"not null;default:false;index"`
}
