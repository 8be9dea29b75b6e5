package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"task-collab/backend/internal/models"
	"task-collab/backend/internal/storage"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const DefaultMaxUploadBytes = 10 << 20

// Upload is the incoming file: metadata from the multipart header plus the
// content stream. Filename, content type and size are snapshotted onto the
// attachment record at creation and never recomputed from the blob.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// CleanupQueue accepts deferred blob-removal work for handles whose
// immediate deletion failed.
type CleanupQueue interface {
	EnqueueBlobCleanup(handle string) error
}

type AttachmentService interface {
	CreateAttachment(db *gorm.DB, uploaderID, taskID uuid.UUID, up *Upload) (models.FileAttachment, error)
	GetAttachments(db *gorm.DB, taskID uuid.UUID) ([]models.FileAttachment, error)
	OpenAttachment(db *gorm.DB, id uuid.UUID) (models.FileAttachment, io.ReadCloser, error)
	DeleteAttachment(db *gorm.DB, id uuid.UUID) error
}

type AttachmentServiceImpl struct {
	blobs    storage.BlobStore
	cleanup  CleanupQueue
	maxBytes int64
}

// NewAttachmentService wires the blob store and an optional cleanup queue;
// pass nil to skip deferred cleanup of orphaned blobs.
func NewAttachmentService(blobs storage.BlobStore, cleanup CleanupQueue, maxBytes int64) *AttachmentServiceImpl {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &AttachmentServiceImpl{blobs: blobs, cleanup: cleanup, maxBytes: maxBytes}
}

func (s *AttachmentServiceImpl) CreateAttachment(db *gorm.DB, uploaderID, taskID uuid.UUID, up *Upload) (models.FileAttachment, error) {
	if up == nil || up.Content == nil {
		return models.FileAttachment{}, fmt.Errorf("%w: no file provided", ErrInvalidInput)
	}
	if up.Filename == "" {
		return models.FileAttachment{}, fmt.Errorf("%w: filename must not be blank", ErrInvalidInput)
	}
	if up.Size > s.maxBytes {
		return models.FileAttachment{}, fmt.Errorf("%w: file size exceeds %d byte limit", ErrInvalidInput, s.maxBytes)
	}
	if _, err := liveTask(db, taskID); err != nil {
		return models.FileAttachment{}, err
	}

	id := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	handle := path.Join("task_files", now.Format("2006/01/02"), id.String()+"_"+path.Base(up.Filename))
	if err := s.blobs.Store(handle, up.Content); err != nil {
		return models.FileAttachment{}, fmt.Errorf("failed to store blob: %w", err)
	}

	attachment := models.FileAttachment{
		ID:          id,
		TaskID:      taskID,
		UploadedBy:  uploaderID,
		Filename:    up.Filename,
		ContentType: up.ContentType,
		Size:        up.Size,
		BlobHandle:  handle,
		UploadedAt:  now,
	}
	if err := db.Create(&attachment).Error; err != nil {
		// Metadata insert failed after the blob landed; try not to leave
		// the blob orphaned.
		if delErr := s.blobs.Delete(handle); delErr != nil {
			log.Printf("failed to remove blob %s after metadata error: %v", handle, delErr)
		}
		return models.FileAttachment{}, err
	}
	return attachment, nil
}

func (s *AttachmentServiceImpl) GetAttachments(db *gorm.DB, taskID uuid.UUID) ([]models.FileAttachment, error) {
	var attachments []models.FileAttachment
	err := db.Where("task_id = ?", taskID).
		Order("uploaded_at DESC").
		Find(&attachments).Error
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

func (s *AttachmentServiceImpl) OpenAttachment(db *gorm.DB, id uuid.UUID) (models.FileAttachment, io.ReadCloser, error) {
	attachment, err := s.getAttachment(db, id)
	if err != nil {
		return models.FileAttachment{}, nil, err
	}
	rc, err := s.blobs.Open(attachment.BlobHandle)
	if err != nil {
		return models.FileAttachment{}, nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return attachment, rc, nil
}

// DeleteAttachment removes the blob best-effort, then the metadata record
// unconditionally: metadata without a backing blob is meaningless, so a
// failed blob removal is logged and queued for retry, never surfaced.
func (s *AttachmentServiceImpl) DeleteAttachment(db *gorm.DB, id uuid.UUID) error {
	attachment, err := s.getAttachment(db, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(attachment.BlobHandle); err != nil {
		log.Printf("best-effort blob delete failed for %s: %v", attachment.BlobHandle, err)
		if s.cleanup != nil {
			if qErr := s.cleanup.EnqueueBlobCleanup(attachment.BlobHandle); qErr != nil {
				log.Printf("failed to enqueue blob cleanup for %s: %v", attachment.BlobHandle, qErr)
			}
		}
	}
	return db.Delete(&models.FileAttachment{}, "id = ?", id).Error
}

func (s *AttachmentServiceImpl) getAttachment(db *gorm.DB, id uuid.UUID) (models.FileAttachment, error) {
	var attachment models.FileAttachment
	if err := db.Where("id = ?", id).First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FileAttachment{}, fmt.Errorf("%w: attachment %s", ErrNotFound, id)
		}
		return models.FileAttachment{}, err
	}
	return attachment, nil
}
