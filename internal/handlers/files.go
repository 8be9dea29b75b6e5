package handlers

import (
	"net/http"

	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type FileHandler struct {
	db                *gorm.DB
	attachmentService services.AttachmentService
}

func NewFileHandler(db *gorm.DB, attachmentService services.AttachmentService) *FileHandler {
	return &FileHandler{db: db, attachmentService: attachmentService}
}

func (h *FileHandler) GetAttachments(c *gin.Context) {
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

	attachments, err := h.attachmentService.GetAttachments(h.db, taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}

func (h *FileHandler) CreateAttachment(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer f.Close()

	upload := &services.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     f,
	}
	attachment, err := h.attachmentService.CreateAttachment(h.db, userID, taskID, upload)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

func (h *FileHandler) DownloadAttachment(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	attachment, rc, err := h.attachmentService.OpenAttachment(h.db, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+attachment.Filename+`"`)
	c.DataFromReader(http.StatusOK, attachment.Size, attachment.ContentType, rc, nil)
}

func (h *FileHandler) DeleteAttachment(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	if err := h.attachmentService.DeleteAttachment(h.db, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
