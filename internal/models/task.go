package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusExpired    TaskStatus = "expired"
)

func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusExpired:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func ValidTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type TaskCategory string

const (
	TaskCategoryBug         TaskCategory = "bug"
	TaskCategoryFeature     TaskCategory = "feature"
	TaskCategoryImprovement TaskCategory = "improvement"
)

func ValidTaskCategory(c TaskCategory) bool {
	switch c {
	case TaskCategoryBug, TaskCategoryFeature, TaskCategoryImprovement:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string       `gorm:"type:varchar(200);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'todo';index" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'medium';index" json:"priority"`
	Category    TaskCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	DueDate     *time.Time   `gorm:"index" json:"due_date"`
	// CompletedAt is derived: set exactly when Status == completed.
	CompletedAt    *time.Time `json:"completed_at"`
	AssignedToID   *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id"`
	CreatedByID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"created_by_id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	AssignedTo   *User            `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedBy    *User            `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Organization *Organization    `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Comments     []TaskComment    `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments  []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// Overdue reports whether the task is past its due date and still open.
func (t *Task) Overdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusExpired {
		return false
	}
	return t.DueDate.Before(now)
}
