// Package dto holds the public response views. Credentials and invite tokens
// never leave through these structs.
package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/utils"
)

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrganizationDTO represents an organization in API responses.
type OrganizationDTO struct {
	ID          uuid.UUID                   `json:"id"`
	Name        string                      `json:"name"`
	Slug        string                      `json:"slug"`
	Description string                      `json:"description"`
	Settings    models.OrganizationSettings `json:"settings"`
	CreatedBy   *UserDTO                    `json:"created_by,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// CommentDTO represents a task comment.
type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	User      *UserDTO  `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentDTO represents task attachment metadata.
type AttachmentDTO struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	UploadedByID uuid.UUID `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// TaskDTO represents a task in API responses.
type TaskDTO struct {
	ID             uuid.UUID           `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Status         models.TaskStatus   `json:"status"`
	Priority       models.TaskPriority `json:"priority"`
	Category       models.TaskCategory `json:"category"`
	DueDate        *time.Time          `json:"due_date"`
	CompletedAt    *time.Time          `json:"completed_at"`
	AssignedTo     *UserDTO            `json:"assigned_to,omitempty"`
	CreatedBy      *UserDTO            `json:"created_by,omitempty"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	Comments       []CommentDTO        `json:"comments,omitempty"`
	Attachments    []AttachmentDTO     `json:"attachments,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TaskListResponse is the paginated list envelope.
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// AuthResponse pairs a session token with the authenticated user.
type AuthResponse struct {
	Token        string           `json:"token"`
	User         UserDTO          `json:"user"`
	Organization *OrganizationDTO `json:"organization,omitempty"`
}

// ToUserDTO converts a User model to UserDTO.
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO.
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	dto := OrganizationDTO{
		ID:          org.ID,
		Name:        org.Name,
		Slug:        org.Slug,
		Description: org.Description,
		Settings:    org.Settings,
		CreatedAt:   org.CreatedAt,
	}

	if org.CreatedBy != nil {
		creator := ToUserDTO(*org.CreatedBy)
		dto.CreatedBy = &creator
	}

	return dto
}

// ToTaskDTO converts a Task model to TaskDTO.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		Category:       task.Category,
		DueDate:        task.DueDate,
		CompletedAt:    task.CompletedAt,
		OrganizationID: task.OrganizationID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	if task.AssignedTo != nil {
		assignee := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	}
	if task.CreatedBy != nil {
		creator := ToUserDTO(*task.CreatedBy)
		dto.CreatedBy = &creator
	}

	for _, comment := range task.Comments {
		item := CommentDTO{
			ID:        comment.ID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}
		if comment.User != nil {
			user := ToUserDTO(*comment.User)
			item.User = &user
		}
		dto.Comments = append(dto.Comments, item)
	}

	for _, attachment := range task.Attachments {
		dto.Attachments = append(dto.Attachments, AttachmentDTO{
			ID:           attachment.ID,
			Filename:     attachment.Filename,
			OriginalName: attachment.OriginalName,
			Size:         attachment.Size,
			UploadedByID: attachment.UploadedByID,
			UploadedAt:   attachment.UploadedAt,
		})
	}

	return dto
}

// ToTaskListResponse converts tasks plus pagination into the list envelope.
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToMemberDTOs converts a member list, excluding credentials.
func ToMemberDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}
