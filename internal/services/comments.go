package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CommentService interface {
	CreateComment(db *gorm.DB, authorID, taskID uuid.UUID, content string) (models.Comment, error)
	GetComments(db *gorm.DB, taskID uuid.UUID) ([]models.Comment, error)
	DeleteComment(db *gorm.DB, principalID, commentID uuid.UUID) error
}

type CommentServiceImpl struct{}

func NewCommentService() *CommentServiceImpl {
	return &CommentServiceImpl{}
}

func (s *CommentServiceImpl) CreateComment(db *gorm.DB, authorID, taskID uuid.UUID, content string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, fmt.Errorf("%w: content must not be blank", ErrInvalidInput)
	}
	if _, err := liveTask(db, taskID); err != nil {
		return models.Comment{}, err
	}

	now := time.Now().UTC()
	comment := models.Comment{
		ID:        uuid.Must(uuid.NewV4()),
		TaskID:    taskID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&comment).Error; err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

func (s *CommentServiceImpl) GetComments(db *gorm.DB, taskID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Where("task_id = ? AND is_deleted = ?", taskID, false).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment is author-only: not even the task owner may remove another
// user's comment. Soft delete only.
func (s *CommentServiceImpl) DeleteComment(db *gorm.DB, principalID, commentID uuid.UUID) error {
	var comment models.Comment
	err := db.Where("id = ? AND is_deleted = ?", commentID, false).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: comment %s", ErrNotFound, commentID)
		}
		return err
	}
	if comment.AuthorID != principalID {
		return fmt.Errorf("%w: only the author may delete a comment", ErrForbidden)
	}
	return db.Model(&models.Comment{}).Where("id = ?", commentID).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_at": time.Now().UTC(),
		}).Error
}
