package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"task-collab/backend/internal/models"
	"task-collab/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

type taskCreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	Tags        []string   `json:"tags"`
}

func (r *taskCreateRequest) toInput() (services.TaskInput, error) {
	input := services.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
		Tags:        r.Tags,
	}
	if r.AssignedTo != nil {
		id, err := uuid.FromString(*r.AssignedTo)
		if err != nil {
			return services.TaskInput{}, errors.New("assigned_to is not a valid user id")
		}
		input.AssignedTo = &id
	}
	return input, nil
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(h.db, userID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	task, err := h.taskService.GetTaskByID(h.db, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	query := services.TaskQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	if v := c.Query("assigned_to"); v != "" {
		id, err := uuid.FromString(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "assigned_to is not a valid user id"})
			return
		}
		query.AssignedTo = &id
	}
	if v := c.Query("created_by"); v != "" {
		id, err := uuid.FromString(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "created_by is not a valid user id"})
			return
		}
		query.CreatedBy = &id
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "0"))
	query.IncludeDeleted, _ = strconv.ParseBool(c.DefaultQuery("include_deleted", "false"))

	tasks, total, err := h.taskService.GetTasksPage(h.db, userID, isStaff(c), query)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageEnvelope(tasks, total, query.Page, query.PageSize))
}

type taskPatchRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	Tags        []string   `json:"tags"`
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))

	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	}
	if req.AssignedTo != nil {
		assignee, err := uuid.FromString(*req.AssignedTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "assigned_to is not a valid user id"})
			return
		}
		patch.AssignedTo = &assignee
	}

	task, err := h.taskService.UpdateTask(h.db, id, patch)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := uuid.FromStringOrNil(c.Param("id"))
	if err := h.taskService.SoftDeleteTask(h.db, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) AssignUser(c *gin.Context) {
	taskID := uuid.FromStringOrNil(c.Param("id"))
	userID, err := uuid.FromString(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is not a valid user id"})
		return
	}

	result, err := h.taskService.AssignTask(h.db, taskID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	switch result.Outcome {
	case services.AssignmentUnchanged:
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "user is already assigned to this task",
			"data":    result,
		})
	case services.AssignmentReassigned:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "task reassigned",
			"data":    result,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "task assigned",
			"data":    result,
		})
	}
}

// bulkTaskItem mirrors taskCreateRequest without the required tag on the
// title, so one invalid item is reported at its position instead of the
// slice binding rejecting the whole batch.
type bulkTaskItem struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	Tags        []string   `json:"tags"`
}

func (r *bulkTaskItem) toInput() (services.TaskInput, error) {
	req := taskCreateRequest(*r)
	return req.toInput()
}

func (h *TaskHandler) BulkCreate(c *gin.Context) {
	userID, ok := principalID(c)
	if !ok {
		return
	}

	var reqs []bulkTaskItem
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Items that fail to parse are reported per-item, like any other
	// invalid spec; the rest of the batch still goes through.
	var specs []services.TaskInput
	var specIndexes []int
	failures := []services.BatchError{}
	for i, req := range reqs {
		input, err := req.toInput()
		if err != nil {
			failures = append(failures, services.BatchError{Index: i, Error: err.Error()})
			continue
		}
		specs = append(specs, input)
		specIndexes = append(specIndexes, i)
	}

	created, svcFailures := h.taskService.CreateBatch(h.db, userID, specs)
	for _, f := range svcFailures {
		failures = append(failures, services.BatchError{Index: specIndexes[f.Index], Error: f.Error})
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })

	c.JSON(http.StatusCreated, gin.H{
		"created": created,
		"errors":  failures,
	})
}

func pageEnvelope(tasks []models.Task, total int64, page, pageSize int) gin.H {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = services.DefaultPageSize
	}
	if pageSize > services.MaxPageSize {
		pageSize = services.MaxPageSize
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	var next, previous *int
	if page < totalPages {
		n := page + 1
		next = &n
	}
	if page > 1 {
		p := page - 1
		previous = &p
	}
	return gin.H{
		"count":    total,
		"next":     next,
		"previous": previous,
		"results":  tasks,
	}
}
