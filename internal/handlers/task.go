package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fieldstone/task-tracker-api/internal/apierrors"
	"github.com/fieldstone/task-tracker-api/internal/dto"
	"github.com/fieldstone/task-tracker-api/internal/middleware"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/services"
	"github.com/fieldstone/task-tracker-api/internal/utils"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// List returns tasks visible to the current user, filtered and paginated.
func (h *TaskHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		Page:  params.Page,
		Limit: params.Limit,
	}

	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("category"); v != "" {
		category := models.TaskCategory(v)
		input.Category = &category
	}
	if v := c.Query("assignedTo"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignedTo")
			return
		}
		input.AssignedToID = &id
	}

	tasks, total, err := h.taskService.List(user, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// Get returns a single task.
func (h *TaskHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	task, err := h.taskService.Get(user, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Create creates a new task.
func (h *TaskHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required,max=200"`
		Description string              `json:"description" binding:"max=2000"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		Category    models.TaskCategory `json:"category" binding:"required"`
		DueDate     *time.Time          `json:"dueDate"`
		AssignedTo  *uuid.UUID          `json:"assignedTo"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(user, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		Category:     req.Category,
		DueDate:      req.DueDate,
		AssignedToID: req.AssignedTo,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// Update applies a partial update. A key present with a null value clears the
// field; an absent key leaves it untouched, so the raw body is inspected for
// dueDate and assignedTo presence.
func (h *TaskHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		Category    *models.TaskCategory `json:"category"`
		DueDate     *time.Time           `json:"dueDate"`
		AssignedTo  *uuid.UUID           `json:"assignedTo"`
	}

	var req UpdateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	_, setDueDate := raw["dueDate"]
	_, setAssignee := raw["assignedTo"]

	task, err := h.taskService.Update(user, taskID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		Category:     req.Category,
		DueDate:      req.DueDate,
		SetDueDate:   setDueDate,
		AssignedToID: req.AssignedTo,
		SetAssignee:  setAssignee,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	if err := h.taskService.Delete(user, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Stats returns task counts over the caller's visible scope.
func (h *TaskHandler) Stats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	stats, err := h.taskService.Stats(user)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AddComment appends a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	type CommentRequest struct {
		Text string `json:"text" binding:"required,max=1000"`
	}

	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.AddComment(user, taskID, req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// AddAttachment records attachment metadata on a task.
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return
	}

	type AttachmentRequest struct {
		Filename     string `json:"filename" binding:"required,max=255"`
		OriginalName string `json:"originalName" binding:"required,max=255"`
		Size         int64  `json:"size" binding:"required,min=0"`
	}

	var req AttachmentRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.AddAttachment(user, taskID, services.AttachmentInput{
		Filename:     req.Filename,
		OriginalName: req.OriginalName,
		Size:         req.Size,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrTenantRequired):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrDescriptionTooLong),
		errors.Is(err, services.ErrCategoryRequired),
		errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidAssignment),
		errors.Is(err, services.ErrCommentRequired),
		errors.Is(err, services.ErrCommentTooLong):
		apierrors.BadRequest(c, err.Error())
	default:
		serverError(c, err)
	}
}
