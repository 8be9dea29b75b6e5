package handlers

import (
	"net/http"

	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TagHandler struct {
	db         *gorm.DB
	tagService services.TagService
}

func NewTagHandler(db *gorm.DB, tagService services.TagService) *TagHandler {
	return &TagHandler{db: db, tagService: tagService}
}

func (h *TagHandler) GetTags(c *gin.Context) {
	tags, err := h.tagService.GetTags(h.db, c.Query("search"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}
