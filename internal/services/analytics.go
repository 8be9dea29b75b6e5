package services

import (
	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Overview struct {
	StatusCounts   map[string]int64 `json:"status_counts"`
	PriorityCounts map[string]int64 `json:"priority_counts"`
}

type TrendPoint struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// AnalyticsService derives read-only projections over the principal's
// visible task set. No method mutates anything.
type AnalyticsService interface {
	Overview(db *gorm.DB, principalID uuid.UUID) (Overview, error)
	Performance(db *gorm.DB, principalID uuid.UUID) (map[string]int64, error)
	Trends(db *gorm.DB, principalID uuid.UUID) ([]TrendPoint, error)
	Export(db *gorm.DB, principalID uuid.UUID) ([]models.Task, error)
}

type AnalyticsServiceImpl struct{}

func NewAnalyticsService() *AnalyticsServiceImpl {
	return &AnalyticsServiceImpl{}
}

type groupCount struct {
	Key   string
	Count int64
}

func (s *AnalyticsServiceImpl) Overview(db *gorm.DB, principalID uuid.UUID) (Overview, error) {
	overview := Overview{
		StatusCounts:   map[string]int64{},
		PriorityCounts: map[string]int64{},
	}

	var byStatus []groupCount
	err := db.Model(&models.Task{}).
		Select("status AS key, COUNT(*) AS count").
		Where("created_by = ? AND is_deleted = ?", principalID, false).
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return Overview{}, err
	}
	for _, row := range byStatus {
		overview.StatusCounts[row.Key] = row.Count
	}

	var byPriority []groupCount
	err = db.Model(&models.Task{}).
		Select("priority AS key, COUNT(*) AS count").
		Where("created_by = ? AND is_deleted = ?", principalID, false).
		Group("priority").
		Scan(&byPriority).Error
	if err != nil {
		return Overview{}, err
	}
	for _, row := range byPriority {
		overview.PriorityCounts[row.Key] = row.Count
	}
	return overview, nil
}

// Performance counts done tasks created by the principal, per assignee.
func (s *AnalyticsServiceImpl) Performance(db *gorm.DB, principalID uuid.UUID) (map[string]int64, error) {
	var rows []groupCount
	err := db.Model(&models.Task{}).
		Select("assigned_to AS key, COUNT(*) AS count").
		Where("created_by = ? AND status = ? AND is_deleted = ? AND assigned_to IS NOT NULL",
			principalID, models.StatusDone, false).
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := map[string]int64{}
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

// Trends groups the principal's created-or-assigned tasks by creation day,
// ascending.
func (s *AnalyticsServiceImpl) Trends(db *gorm.DB, principalID uuid.UUID) ([]TrendPoint, error) {
	var points []TrendPoint
	err := db.Model(&models.Task{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Where("(created_by = ? OR assigned_to = ?) AND is_deleted = ?", principalID, principalID, false).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (s *AnalyticsServiceImpl) Export(db *gorm.DB, principalID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Preload("Tags").
		Where("(created_by = ? OR assigned_to = ?) AND is_deleted = ?", principalID, principalID, false).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}
