package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// FileAttachment metadata is snapshotted from the upload at creation time;
// size and content type are never recomputed from the stored blob.
type FileAttachment struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID      uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	UploadedBy  uuid.UUID `json:"uploaded_by" gorm:"type:uuid;not null"`
	Filename    string    `json:"filename" gorm:"not null"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	BlobHandle  string    `json:"-" gorm:"not null"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
