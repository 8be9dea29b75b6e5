package services

import (
	"errors"
	"fmt"

	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUserByID(db *gorm.DB, id uuid.UUID) (models.User, error)
	GetUsers(db *gorm.DB) ([]models.User, error)
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserServiceImpl) GetUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
