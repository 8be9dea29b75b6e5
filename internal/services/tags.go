package services

import (
	"errors"
	"fmt"
	"strings"

	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TagService interface {
	Resolve(db *gorm.DB, name string) (models.Tag, error)
	GetTags(db *gorm.DB, search string) ([]models.Tag, error)
}

type TagServiceImpl struct{}

func NewTagService() *TagServiceImpl {
	return &TagServiceImpl{}
}

// Resolve trims the name and returns the existing tag or creates it.
// Creation is guarded by the unique index on name: a writer that loses a
// concurrent race re-reads the winning row instead of erroring, so two
// requests introducing the same name converge to one tag.
func (s *TagServiceImpl) Resolve(db *gorm.DB, name string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, fmt.Errorf("%w: tag name must not be blank", ErrInvalidInput)
	}

	var tag models.Tag
	err := db.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Tag{}, err
	}

	tag = models.Tag{ID: uuid.Must(uuid.NewV4()), Name: name}
	if createErr := db.Create(&tag).Error; createErr != nil {
		// Unique constraint hit: another request created the tag first.
		if readErr := db.Where("name = ?", name).First(&tag).Error; readErr != nil {
			return models.Tag{}, createErr
		}
	}
	return tag, nil
}

func (s *TagServiceImpl) GetTags(db *gorm.DB, search string) ([]models.Tag, error) {
	var tags []models.Tag
	query := db.Model(&models.Tag{}).Order("name ASC")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
