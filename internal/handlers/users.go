package handlers

import (
	"net/http"

	"task-collab/backend/internal/models"
	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
}

func NewUserHandler(db *gorm.DB, userService services.UserService) *UserHandler {
	return &UserHandler{db: db, userService: userService}
}

func (h *UserHandler) GetUserProfile(c *gin.Context) {
	currentUserID, ok := principalID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(h.db, currentUserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, userProfilePayload(&user))
}

// GetUserProfileByUserId serves another user's profile. Only the user
// themselves or a staff principal may read it.
func (h *UserHandler) GetUserProfileByUserId(c *gin.Context) {
	currentUserID, ok := principalID(c)
	if !ok {
		return
	}

	targetUserID, err := uuid.FromString(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if targetUserID != currentUserID && !isStaff(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	user, err := h.userService.GetUserByID(h.db, targetUserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, userProfilePayload(&user))
}

// GetUsers lists active users so clients can populate assignee pickers.
func (h *UserHandler) GetUsers(c *gin.Context) {
	if _, ok := principalID(c); !ok {
		return
	}

	users, err := h.userService.GetUsers(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users"})
		return
	}

	response := make([]gin.H, 0, len(users))
	for i := range users {
		response = append(response, userProfilePayload(&users[i]))
	}

	c.JSON(http.StatusOK, response)
}

func userProfilePayload(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"is_staff":   user.IsStaff,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}
}
