package handlers

import (
	"net/http"

	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AnalyticsHandler struct {
	db               *gorm.DB
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(db *gorm.DB, analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Overview(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	overview, err := h.analyticsService.Overview(h.db, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AnalyticsHandler) UserPerformance(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	performance, err := h.analyticsService.Performance(h.db, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed_by_assignee": performance})
}

func (h *AnalyticsHandler) Trends(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	trends, err := h.analyticsService.Trends(h.db, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

func (h *AnalyticsHandler) Export(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}
	tasks, err := h.analyticsService.Export(h.db, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
