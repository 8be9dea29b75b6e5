package handlers

import (
	"net/http"

	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db             *gorm.DB
	commentService services.CommentService
}

func NewCommentHandler(db *gorm.DB, commentService services.CommentService) *CommentHandler {
	return &CommentHandler{db: db, commentService: commentService}
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	taskPK := c.Query("task_pk")
	if taskPK == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_pk query parameter is required"})
		return
	}
	taskID, err := uuid.FromString(taskPK)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_pk is not a valid task id"})
		return
	}

	comments, err := h.commentService.GetComments(h.db, taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var req struct {
		TaskID  string `json:"task_id" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID, err := uuid.FromString(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_id is not a valid task id"})
		return
	}

	comment, err := h.commentService.CreateComment(h.db, userID, taskID, req.Content)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	commentID := uuid.FromStringOrNil(c.Param("id"))
	if err := h.commentService.DeleteComment(h.db, userID, commentID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
