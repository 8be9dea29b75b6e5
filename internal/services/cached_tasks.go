package services

import (
	"fmt"
	"time"

	"task-collab/backend/internal/cache"
	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const taskCacheTTL = 30 * time.Minute

// CachedTaskService decorates a TaskService with single-task caching and
// invalidates the per-user analytics projections whenever a mutation
// changes what those projections would report.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{taskService: taskService, cache: cacheInstance}
}

func taskCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id)
}

func (s *CachedTaskService) invalidateFor(task models.Task) {
	s.cache.Delete(taskCacheKey(task.ID))
	s.cache.DeletePattern(fmt.Sprintf("analytics:*:%s", task.CreatedBy))
	if task.AssignedTo != nil {
		s.cache.DeletePattern(fmt.Sprintf("analytics:*:%s", *task.AssignedTo))
	}
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, creatorID uuid.UUID, input TaskInput) (models.Task, error) {
	task, err := s.taskService.CreateTask(db, creatorID, input)
	if err != nil {
		return task, err
	}
	s.cache.Set(taskCacheKey(task.ID), task, taskCacheTTL)
	s.invalidateFor(task)
	return task, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskCacheKey(id), &cached); err == nil {
		return cached, nil
	}

	task, err := s.taskService.GetTaskByID(db, id)
	if err != nil {
		return task, err
	}
	s.cache.Set(taskCacheKey(id), task, taskCacheTTL)
	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, patch TaskPatch) (models.Task, error) {
	prior, priorErr := s.taskService.GetTaskByID(db, id)

	task, err := s.taskService.UpdateTask(db, id, patch)
	if err != nil {
		return task, err
	}
	s.invalidateFor(task)
	// A reassignment also changes what the displaced assignee's
	// projections report.
	if priorErr == nil && prior.AssignedTo != nil &&
		(task.AssignedTo == nil || *task.AssignedTo != *prior.AssignedTo) {
		s.cache.DeletePattern(fmt.Sprintf("analytics:*:%s", *prior.AssignedTo))
	}
	return task, nil
}

func (s *CachedTaskService) AssignTask(db *gorm.DB, taskID, userID uuid.UUID) (AssignmentResult, error) {
	result, err := s.taskService.AssignTask(db, taskID, userID)
	if err != nil {
		return result, err
	}
	if result.Outcome != AssignmentUnchanged {
		s.cache.Delete(taskCacheKey(taskID))
		// The creator's projections group by assignee, so they change
		// on every assignment too.
		s.cache.DeletePattern(fmt.Sprintf("analytics:*:%s", result.CreatedBy))
		s.cache.DeletePattern(fmt.Sprintf("analytics:*:%s", result.NewAssignee))
		if result.PreviousAssignee != nil {
			s.cache.DeletePattern(fmt.Sprintf("analytics:*:%s", *result.PreviousAssignee))
		}
	}
	return result, nil
}

func (s *CachedTaskService) SoftDeleteTask(db *gorm.DB, id uuid.UUID) error {
	task, getErr := s.taskService.GetTaskByID(db, id)

	if err := s.taskService.SoftDeleteTask(db, id); err != nil {
		return err
	}
	if getErr == nil {
		s.invalidateFor(task)
	} else {
		s.cache.Delete(taskCacheKey(id))
	}
	return nil
}

// Listings are not cached: the filter/search/order/page space is too wide
// for useful hit rates and invalidation would have to be wholesale.
func (s *CachedTaskService) GetTasksPage(db *gorm.DB, principalID uuid.UUID, privileged bool, q TaskQuery) ([]models.Task, int64, error) {
	return s.taskService.GetTasksPage(db, principalID, privileged, q)
}

func (s *CachedTaskService) CreateBatch(db *gorm.DB, creatorID uuid.UUID, specs []TaskInput) ([]models.Task, []BatchError) {
	created, failures := s.taskService.CreateBatch(db, creatorID, specs)
	for _, task := range created {
		s.cache.Set(taskCacheKey(task.ID), task, taskCacheTTL)
		s.invalidateFor(task)
	}
	return created, failures
}
