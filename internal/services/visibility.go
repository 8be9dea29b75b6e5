package services

import (
	"strings"

	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var orderableColumns = map[string]string{
	"due_date":   "due_date",
	"created_at": "created_at",
	"priority":   "priority",
}

// GetTasksPage builds the ownership-scoped listing: tasks created by the
// requesting principal, live ones by default. IncludeDeleted is honored
// only for privileged principals and flips the view to deleted tasks
// instead of live ones; it never unions the two. Tasks merely assigned to
// the principal are not part of the default view.
func (s *TaskServiceImpl) GetTasksPage(db *gorm.DB, principalID uuid.UUID, privileged bool, q TaskQuery) ([]models.Task, int64, error) {
	q = normalizeQuery(q)

	build := func() *gorm.DB {
		query := db.Model(&models.Task{}).Where("created_by = ?", principalID)
		if q.IncludeDeleted && privileged {
			query = query.Where("is_deleted = ?", true)
		} else {
			query = query.Where("is_deleted = ?", false)
		}
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
		if q.Priority != "" {
			query = query.Where("priority = ?", q.Priority)
		}
		if q.AssignedTo != nil {
			query = query.Where("assigned_to = ?", *q.AssignedTo)
		}
		if q.CreatedBy != nil {
			query = query.Where("created_by = ?", *q.CreatedBy)
		}
		if q.Search != "" {
			pattern := "%" + q.Search + "%"
			tagged := db.Table("task_tags").Select("task_tags.task_id").
				Joins("JOIN tags ON tags.id = task_tags.tag_id").
				Where("tags.name LIKE ?", pattern)
			query = query.Where(
				db.Where("title LIKE ?", pattern).
					Or("description LIKE ?", pattern).
					Or("id IN (?)", tagged),
			)
		}
		return query
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := build().
		Preload("Tags").
		Order(orderClause(q.Ordering)).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func normalizeQuery(q TaskQuery) TaskQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// orderClause maps the ordering parameter ("field" or "-field") onto a
// whitelisted column; anything else falls back to newest-first.
func orderClause(ordering string) string {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")
	column, ok := orderableColumns[field]
	if !ok {
		return "created_at DESC"
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
