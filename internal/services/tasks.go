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

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TaskInput carries the caller-supplied fields for task creation. The
// creator is always taken from the authenticated principal, never from the
// input.
type TaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssignedTo  *uuid.UUID
	Tags        []string
}

// TaskPatch lists the fields eligible for partial update; nil means the
// field was absent from the payload. Tags are an additive union with the
// task's existing tags.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	AssignedTo  *uuid.UUID
	Tags        []string
}

type TaskQuery struct {
	Status         string
	Priority       string
	AssignedTo     *uuid.UUID
	CreatedBy      *uuid.UUID
	Search         string
	Ordering       string
	Page           int
	PageSize       int
	IncludeDeleted bool
}

const (
	AssignmentAssigned   = "assigned"
	AssignmentReassigned = "reassigned"
	AssignmentUnchanged  = "already_assigned"
)

// AssignmentResult reports which of the three assignment branches was
// taken. AssignmentUnchanged is a business outcome, not an error.
// CreatedBy identifies the task's creator so cache decorators can evict
// projections keyed by that user; it is not part of the wire shape.
type AssignmentResult struct {
	Outcome          string     `json:"outcome"`
	TaskID           uuid.UUID  `json:"task_id"`
	PreviousAssignee *uuid.UUID `json:"previous_assignee"`
	NewAssignee      uuid.UUID  `json:"new_assignee"`
	CreatedBy        uuid.UUID  `json:"-"`
}

type BatchError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type TaskService interface {
	CreateTask(db *gorm.DB, creatorID uuid.UUID, input TaskInput) (models.Task, error)
	GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error)
	UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) (models.Task, error)
	AssignTask(db *gorm.DB, taskID, userID uuid.UUID) (AssignmentResult, error)
	SoftDeleteTask(db *gorm.DB, id uuid.UUID) error
	GetTasksPage(db *gorm.DB, principalID uuid.UUID, privileged bool, q TaskQuery) ([]models.Task, int64, error)
	CreateBatch(db *gorm.DB, creatorID uuid.UUID, specs []TaskInput) ([]models.Task, []BatchError)
}

type TaskServiceImpl struct {
	tagService  TagService
	userService UserService
}

func NewTaskService(tagService TagService, userService UserService) *TaskServiceImpl {
	return &TaskServiceImpl{tagService: tagService, userService: userService}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, creatorID uuid.UUID, input TaskInput) (models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return models.Task{}, fmt.Errorf("%w: title must not be blank", ErrInvalidInput)
	}
	if input.Status == "" {
		input.Status = models.StatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !models.IsValidStatus(input.Status) {
		return models.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, input.Status)
	}
	if !models.IsValidPriority(input.Priority) {
		return models.Task{}, fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, input.Priority)
	}

	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if input.AssignedTo != nil {
			if _, err := s.userService.GetUserByID(tx, *input.AssignedTo); err != nil {
				if errors.Is(err, ErrNotFound) {
					return ErrUnknownAssignee
				}
				return err
			}
		}

		now := time.Now().UTC()
		task = models.Task{
			ID:          uuid.Must(uuid.NewV4()),
			Title:       input.Title,
			Description: input.Description,
			Status:      input.Status,
			Priority:    input.Priority,
			CreatedBy:   creatorID,
			AssignedTo:  input.AssignedTo,
			DueDate:     input.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return s.attachTags(tx, &task, input.Tags)
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	return liveTask(db, id)
}

// UpdateTask applies the patch as a unit: any invalid field, including an
// assigned_to reference to a user that does not exist, rejects the whole
// update.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) (models.Task, error) {
	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = liveTask(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return fmt.Errorf("%w: title must not be blank", ErrInvalidInput)
			}
			updates["title"] = title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Status != nil {
			if !models.IsValidStatus(*patch.Status) {
				return fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *patch.Status)
			}
			updates["status"] = *patch.Status
		}
		if patch.Priority != nil {
			if !models.IsValidPriority(*patch.Priority) {
				return fmt.Errorf("%w: invalid priority %q", ErrInvalidInput, *patch.Priority)
			}
			updates["priority"] = *patch.Priority
		}
		if patch.DueDate != nil {
			updates["due_date"] = *patch.DueDate
		}
		if patch.AssignedTo != nil {
			if _, err := s.userService.GetUserByID(tx, *patch.AssignedTo); err != nil {
				if errors.Is(err, ErrNotFound) {
					return fmt.Errorf("%w: assigned user does not exist", ErrNotFound)
				}
				return err
			}
			updates["assigned_to"] = *patch.AssignedTo
		}

		if len(updates) > 0 {
			updates["updated_at"] = time.Now().UTC()
			if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := s.attachTags(tx, &task, patch.Tags); err != nil {
			return err
		}

		task, err = liveTask(tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// AssignTask decides between initial assignment, reassignment and a no-op
// against a consistent snapshot: the write is a compare-and-swap on the
// assignee observed during the read, retried once if another writer got
// there first.
func (s *TaskServiceImpl) AssignTask(db *gorm.DB, taskID, userID uuid.UUID) (AssignmentResult, error) {
	if _, err := s.userService.GetUserByID(db, userID); err != nil {
		return AssignmentResult{}, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		var task models.Task
		if err := db.Where("id = ? AND is_deleted = ?", taskID, false).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return AssignmentResult{}, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
			}
			return AssignmentResult{}, err
		}

		if task.AssignedTo != nil && *task.AssignedTo == userID {
			return AssignmentResult{
				Outcome:          AssignmentUnchanged,
				TaskID:           taskID,
				PreviousAssignee: task.AssignedTo,
				NewAssignee:      userID,
				CreatedBy:        task.CreatedBy,
			}, nil
		}

		cas := db.Model(&models.Task{}).Where("id = ? AND is_deleted = ?", taskID, false)
		if task.AssignedTo == nil {
			cas = cas.Where("assigned_to IS NULL")
		} else {
			cas = cas.Where("assigned_to = ?", *task.AssignedTo)
		}
		res := cas.Updates(map[string]interface{}{
			"assigned_to": userID,
			"updated_at":  time.Now().UTC(),
		})
		if res.Error != nil {
			return AssignmentResult{}, res.Error
		}
		if res.RowsAffected == 1 {
			outcome := AssignmentAssigned
			if task.AssignedTo != nil {
				outcome = AssignmentReassigned
			}
			return AssignmentResult{
				Outcome:          outcome,
				TaskID:           taskID,
				PreviousAssignee: task.AssignedTo,
				NewAssignee:      userID,
				CreatedBy:        task.CreatedBy,
			}, nil
		}
		// Lost the race: re-read and decide again.
	}
	return AssignmentResult{}, errors.New("assignment contention: task changed concurrently")
}

// SoftDeleteTask is idempotent: deleting an already-deleted task succeeds
// without touching deleted_at. This is explicit policy, not an accident.
func (s *TaskServiceImpl) SoftDeleteTask(db *gorm.DB, id uuid.UUID) error {
	now := time.Now().UTC()
	res := db.Model(&models.Task{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
	}
	return nil
}

func (s *TaskServiceImpl) attachTags(tx *gorm.DB, task *models.Task, names []string) error {
	for _, name := range names {
		tag, err := s.tagService.Resolve(tx, name)
		if err != nil {
			return err
		}
		if err := tx.Model(task).Association("Tags").Append(&tag); err != nil {
			return err
		}
	}
	return nil
}

func liveTask(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var task models.Task
	err := db.Preload("Tags").Where("id = ? AND is_deleted = ?", id, false).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return models.Task{}, err
	}
	return task, nil
}
