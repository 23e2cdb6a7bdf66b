package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/authz"
	"github.com/fieldstone/task-tracker-api/internal/constants"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/repository"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title must be at most 200 characters")
	ErrDescriptionTooLong = errors.New("description must be at most 2000 characters")
	ErrCategoryRequired   = errors.New("category is required")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidAssignment  = errors.New("assignee must be an active member of the organization")
	ErrCommentRequired    = errors.New("comment text is required")
	ErrCommentTooLong     = errors.New("comment must be at most 1000 characters")
)

var taskPreloads = []string{"CreatedBy", "AssignedTo", "Comments", "Comments.User", "Attachments"}

// TaskService handles task lifecycle business logic.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	Category     models.TaskCategory
	DueDate      *time.Time
	AssignedToID *uuid.UUID
}

// Create creates a task in the actor's organization. Admin or manager only.
func (s *TaskService) Create(actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if !authz.Can(actor.Role, authz.ActionTaskCreate) {
		return nil, ErrForbidden
	}

	orgID, err := tenantID(actor)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(input.Description) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	if input.Category == "" {
		return nil, ErrCategoryRequired
	}
	if !models.ValidTaskCategory(input.Category) {
		return nil, ErrInvalidCategory
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !models.ValidTaskStatus(input.Status) {
		return nil, ErrInvalidStatus
	}

	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !models.ValidTaskPriority(input.Priority) {
		return nil, ErrInvalidPriority
	}

	if input.AssignedToID != nil {
		if err := s.validateAssignee(*input.AssignedToID, orgID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		ID:             uuid.New(),
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		Category:       input.Category,
		DueDate:        input.DueDate,
		AssignedToID:   input.AssignedToID,
		CreatedByID:    actor.ID,
		OrganizationID: orgID,
	}
	recomputeCompletedAt(task, time.Now())

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, orgID, taskPreloads...)
}

// Get returns a task if the actor may view it.
func (s *TaskService) Get(actor *models.User, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.load(actor, taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}

	if !authz.CanViewTask(actor, task) {
		return nil, ErrForbidden
	}

	return task, nil
}

// UpdateTaskInput carries a partial task update. Nil fields are untouched;
// SetDueDate distinguishes "clear the due date" from "leave it alone".
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	Category     *models.TaskCategory
	DueDate      *time.Time
	SetDueDate   bool
	AssignedToID *uuid.UUID
	SetAssignee  bool
}

// StatusOnly reports whether the update touches nothing but the status.
func (in UpdateTaskInput) StatusOnly() bool {
	return in.Title == nil && in.Description == nil && in.Priority == nil &&
		in.Category == nil && !in.SetDueDate && !in.SetAssignee
}

// Update applies a partial update to a task. Admins and managers may change
// any field; a member may only change the status of a task assigned to them,
// and a mixed payload is rejected as a whole.
func (s *TaskService) Update(actor *models.User, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.load(actor, taskID)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleMember {
		if !input.StatusOnly() || !authz.CanMemberUpdateStatus(actor, task) {
			return nil, ErrForbidden
		}
	} else if !authz.Can(actor.Role, authz.ActionTaskUpdateAny) {
		return nil, ErrForbidden
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if len(title) > constants.MaxTitleLength {
			return nil, ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		if len(*input.Description) > constants.MaxDescriptionLength {
			return nil, ErrDescriptionTooLong
		}
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !models.ValidTaskStatus(*input.Status) {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !models.ValidTaskPriority(*input.Priority) {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		if !models.ValidTaskCategory(*input.Category) {
			return nil, ErrInvalidCategory
		}
		task.Category = *input.Category
	}
	if input.SetDueDate {
		task.DueDate = input.DueDate
	}
	if input.SetAssignee {
		if input.AssignedToID != nil {
			if err := s.validateAssignee(*input.AssignedToID, task.OrganizationID); err != nil {
				return nil, err
			}
		}
		task.AssignedToID = input.AssignedToID
	}

	recomputeCompletedAt(task, time.Now())

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, task.OrganizationID, taskPreloads...)
}

// Delete hard-deletes a task. Admin or manager only.
func (s *TaskService) Delete(actor *models.User, taskID uuid.UUID) error {
	if !authz.Can(actor.Role, authz.ActionTaskDelete) {
		return ErrForbidden
	}

	task, err := s.load(actor, taskID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID, task.OrganizationID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// ListTasksInput represents filters for listing tasks.
type ListTasksInput struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	Category     *models.TaskCategory
	AssignedToID *uuid.UUID
	Page         int
	Limit        int
}

// List returns tasks in the actor's organization. Members only see tasks they
// created or are assigned to.
func (s *TaskService) List(actor *models.User, input ListTasksInput) ([]models.Task, int64, error) {
	filter, err := s.scopeFilter(actor)
	if err != nil {
		return nil, 0, err
	}

	filter.Status = input.Status
	filter.Priority = input.Priority
	filter.Category = input.Category
	filter.AssignedToID = input.AssignedToID
	filter.Page = input.Page
	filter.Limit = input.Limit

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// Stats aggregates task counts over the actor's visible scope.
func (s *TaskService) Stats(actor *models.User) (*repository.TaskStats, error) {
	filter, err := s.scopeFilter(actor)
	if err != nil {
		return nil, err
	}

	stats, err := s.taskRepo.Stats(filter, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	return stats, nil
}

// AddComment appends a comment to a task the actor can view.
func (s *TaskService) AddComment(actor *models.User, taskID uuid.UUID, text string) (*models.Task, error) {
	task, err := s.load(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewTask(actor, task) {
		return nil, ErrForbidden
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	if len(text) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	comment := &models.TaskComment{
		ID:     uuid.New(),
		TaskID: task.ID,
		UserID: actor.ID,
		Text:   text,
	}
	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, task.OrganizationID, taskPreloads...)
}

// AttachmentInput carries attachment metadata; file contents are not stored.
type AttachmentInput struct {
	Filename     string
	OriginalName string
	Size         int64
}

// AddAttachment records attachment metadata on a task the actor can view.
func (s *TaskService) AddAttachment(actor *models.User, taskID uuid.UUID, input AttachmentInput) (*models.Task, error) {
	task, err := s.load(actor, taskID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewTask(actor, task) {
		return nil, ErrForbidden
	}

	attachment := &models.TaskAttachment{
		ID:           uuid.New(),
		TaskID:       task.ID,
		Filename:     input.Filename,
		OriginalName: input.OriginalName,
		Size:         input.Size,
		UploadedByID: actor.ID,
		UploadedAt:   time.Now(),
	}
	if err := s.taskRepo.AddAttachment(attachment); err != nil {
		return nil, fmt.Errorf("failed to add attachment: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, task.OrganizationID, taskPreloads...)
}

// load fetches a task scoped to the actor's organization.
func (s *TaskService) load(actor *models.User, taskID uuid.UUID, preload ...string) (*models.Task, error) {
	orgID, err := tenantID(actor)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.FindByID(taskID, orgID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

func (s *TaskService) scopeFilter(actor *models.User) (repository.TaskFilter, error) {
	orgID, err := tenantID(actor)
	if err != nil {
		return repository.TaskFilter{}, err
	}

	filter := repository.TaskFilter{OrganizationID: orgID}
	if actor.Role == models.RoleMember {
		id := actor.ID
		filter.RestrictToUserID = &id
	}
	return filter, nil
}

func (s *TaskService) validateAssignee(assigneeID, orgID uuid.UUID) error {
	assignee, err := s.userRepo.FindByID(assigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAssignment
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}

	if !assignee.IsActive || assignee.OrganizationID == nil || *assignee.OrganizationID != orgID {
		return ErrInvalidAssignment
	}

	return nil
}

// recomputeCompletedAt enforces the derived-field invariant: completed_at is
// set exactly when the status is completed. Called before every task write.
func recomputeCompletedAt(task *models.Task, now time.Time) {
	if task.Status == models.TaskStatusCompleted {
		if task.CompletedAt == nil {
			task.CompletedAt = &now
		}
		return
	}
	task.CompletedAt = nil
}
