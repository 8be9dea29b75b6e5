package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-collab/backend/internal/handlers"
	"task-collab/backend/internal/models"
	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type MockTaskService struct {
	shouldReturnError bool
	returnNotFound    bool
	assignOutcome     string
	tasks             []models.Task
	lastCreator       uuid.UUID
	lastQuery         services.TaskQuery
	lastPrivileged    bool
}

func (m *MockTaskService) CreateTask(db *gorm.DB, creatorID uuid.UUID, input services.TaskInput) (models.Task, error) {
	if m.shouldReturnError {
		return models.Task{}, fmt.Errorf("%w: title must not be blank", services.ErrInvalidInput)
	}
	m.lastCreator = creatorID
	task := models.Task{
		ID:        uuid.Must(uuid.NewV4()),
		Title:     input.Title,
		Status:    input.Status,
		Priority:  input.Priority,
		CreatedBy: creatorID,
	}
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *MockTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	if m.returnNotFound {
		return models.Task{}, fmt.Errorf("%w: task %s", services.ErrNotFound, id)
	}
	return models.Task{ID: id, Title: "Test Task", Status: models.StatusTodo}, nil
}

func (m *MockTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, patch services.TaskPatch) (models.Task, error) {
	if m.returnNotFound {
		return models.Task{}, fmt.Errorf("%w: task %s", services.ErrNotFound, id)
	}
	if m.shouldReturnError {
		return models.Task{}, fmt.Errorf("%w: invalid status", services.ErrInvalidInput)
	}
	task := models.Task{ID: id, Title: "Test Task", Status: models.StatusTodo}
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	return task, nil
}

func (m *MockTaskService) AssignTask(db *gorm.DB, taskID, userID uuid.UUID) (services.AssignmentResult, error) {
	if m.returnNotFound {
		return services.AssignmentResult{}, fmt.Errorf("%w: task %s", services.ErrNotFound, taskID)
	}
	outcome := m.assignOutcome
	if outcome == "" {
		outcome = services.AssignmentAssigned
	}
	return services.AssignmentResult{
		Outcome:     outcome,
		TaskID:      taskID,
		NewAssignee: userID,
	}, nil
}

func (m *MockTaskService) SoftDeleteTask(db *gorm.DB, id uuid.UUID) error {
	if m.returnNotFound {
		return fmt.Errorf("%w: task %s", services.ErrNotFound, id)
	}
	return nil
}

func (m *MockTaskService) GetTasksPage(db *gorm.DB, principalID uuid.UUID, privileged bool, q services.TaskQuery) ([]models.Task, int64, error) {
	if m.shouldReturnError {
		return nil, 0, gorm.ErrInvalidData
	}
	m.lastQuery = q
	m.lastPrivileged = privileged
	return m.tasks, int64(len(m.tasks)), nil
}

func (m *MockTaskService) CreateBatch(db *gorm.DB, creatorID uuid.UUID, specs []services.TaskInput) ([]models.Task, []services.BatchError) {
	var created []models.Task
	var failures []services.BatchError
	for i, spec := range specs {
		if spec.Title == "" {
			failures = append(failures, services.BatchError{Index: i, Error: "title must not be blank"})
			continue
		}
		created = append(created, models.Task{
			ID:        uuid.Must(uuid.NewV4()),
			Title:     spec.Title,
			CreatedBy: creatorID,
		})
	}
	return created, failures
}

func setupTaskHandler() (*handlers.TaskHandler, *MockTaskService, *gin.Engine, uuid.UUID) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(nil, mockService)
	router := gin.New()

	principal := uuid.Must(uuid.NewV4())
	router.Use(func(c *gin.Context) {
		c.Set("user_id", principal.String())
		c.Set("is_staff", false)
		c.Next()
	})

	return handler, mockService, router, principal
}

func TestCreateTask(t *testing.T) {
	handler, mockService, router, principal := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	body, _ := json.Marshal(gin.H{
		"title":    "Test Task",
		"priority": models.PriorityHigh,
		"tags":     []string{"backend"},
	})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if mockService.lastCreator != principal {
		t.Error("Expected creator to be taken from the authenticated principal")
	}
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateTaskBadAssignee(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	body, _ := json.Marshal(gin.H{
		"title":       "Test Task",
		"assigned_to": "not-a-uuid",
	})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateTaskServiceError(t *testing.T) {
	handler, mockService, router, _ := setupTaskHandler()
	mockService.shouldReturnError = true
	router.POST("/tasks", handler.CreateTask)

	body, _ := json.Marshal(gin.H{"title": "   "})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetTaskByIDNotFound(t *testing.T) {
	handler, mockService, router, _ := setupTaskHandler()
	mockService.returnNotFound = true
	router.GET("/tasks/:id", handler.GetTaskByID)

	req, _ := http.NewRequest("GET", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetTasksPageEnvelope(t *testing.T) {
	handler, mockService, router, _ := setupTaskHandler()
	mockService.tasks = []models.Task{
		{ID: uuid.Must(uuid.NewV4()), Title: "one"},
		{ID: uuid.Must(uuid.NewV4()), Title: "two"},
	}
	router.GET("/tasks", handler.GetTasks)

	req, _ := http.NewRequest("GET", "/tasks?status=todo&page=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var envelope struct {
		Count    int64         `json:"count"`
		Next     *int          `json:"next"`
		Previous *int          `json:"previous"`
		Results  []models.Task `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if envelope.Count != 2 {
		t.Errorf("Expected count 2, got %d", envelope.Count)
	}
	if envelope.Next != nil || envelope.Previous != nil {
		t.Error("Expected a single page with no next or previous links")
	}
	if mockService.lastQuery.Status != models.StatusTodo {
		t.Errorf("Expected status filter to be forwarded, got %q", mockService.lastQuery.Status)
	}
	if mockService.lastPrivileged {
		t.Error("Expected non-staff principal to be unprivileged")
	}
}

func TestGetTasksBadFilterUUID(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.GET("/tasks", handler.GetTasks)

	req, _ := http.NewRequest("GET", "/tasks?assigned_to=nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestUpdateTask(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.PATCH("/tasks/:id", handler.UpdateTask)

	body, _ := json.Marshal(gin.H{"status": models.StatusDone})
	req, _ := http.NewRequest("PATCH", "/tasks/"+uuid.Must(uuid.NewV4()).String(), bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if task.Status != models.StatusDone {
		t.Errorf("Expected status %q, got %q", models.StatusDone, task.Status)
	}
}

func TestDeleteTask(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.DELETE("/tasks/:id", handler.DeleteTask)

	req, _ := http.NewRequest("DELETE", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}

func TestAssignUserOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		outcome     string
		wantSuccess bool
	}{
		{"initial assignment", services.AssignmentAssigned, true},
		{"reassignment", services.AssignmentReassigned, true},
		{"already assigned", services.AssignmentUnchanged, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService, router, _ := setupTaskHandler()
			mockService.assignOutcome = tt.outcome
			router.POST("/tasks/:id/assign-user/:user_id", handler.AssignUser)

			url := "/tasks/" + uuid.Must(uuid.NewV4()).String() +
				"/assign-user/" + uuid.Must(uuid.NewV4()).String()
			req, _ := http.NewRequest("POST", url, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
			}

			var resp struct {
				Success bool                      `json:"success"`
				Data    services.AssignmentResult `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("Expected success=%v, got %v", tt.wantSuccess, resp.Success)
			}
			if resp.Data.Outcome != tt.outcome {
				t.Errorf("Expected outcome %q, got %q", tt.outcome, resp.Data.Outcome)
			}
		})
	}
}

func TestAssignUserBadUserID(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.POST("/tasks/:id/assign-user/:user_id", handler.AssignUser)

	url := "/tasks/" + uuid.Must(uuid.NewV4()).String() + "/assign-user/nope"
	req, _ := http.NewRequest("POST", url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestBulkCreatePartialFailure(t *testing.T) {
	handler, _, router, _ := setupTaskHandler()
	router.POST("/tasks/bulk-create", handler.BulkCreate)

	body, _ := json.Marshal([]gin.H{
		{"title": "first"},
		{"title": ""},
		{"title": "third", "assigned_to": "not-a-uuid"},
		{"title": "fourth"},
	})
	req, _ := http.NewRequest("POST", "/tasks/bulk-create", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var resp struct {
		Created []models.Task         `json:"created"`
		Errors  []services.BatchError `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp.Created) != 2 {
		t.Errorf("Expected 2 created tasks, got %d", len(resp.Created))
	}
	if len(resp.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(resp.Errors))
	}
	// Failures must carry the index of the original submission.
	if resp.Errors[0].Index != 1 || resp.Errors[1].Index != 2 {
		t.Errorf("Expected failures at indexes 1 and 2, got %d and %d",
			resp.Errors[0].Index, resp.Errors[1].Index)
	}
}
