package services

import (
	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CreateBatch materializes each spec independently, in order. An invalid
// item is reported with its original index and never aborts the rest of
// the batch: N specs with one bad item yield N-1 tasks plus one error.
func (s *TaskServiceImpl) CreateBatch(db *gorm.DB, creatorID uuid.UUID, specs []TaskInput) ([]models.Task, []BatchError) {
	created := []models.Task{}
	failures := []BatchError{}
	for i, spec := range specs {
		task, err := s.CreateTask(db, creatorID, spec)
		if err != nil {
			failures = append(failures, BatchError{Index: i, Error: err.Error()})
			continue
		}
		created = append(created, task)
	}
	return created, failures
}
