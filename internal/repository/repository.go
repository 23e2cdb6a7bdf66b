package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldstone/task-tracker-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// CreateWithOrganization creates the founding admin, their organization,
	// and the back-link from user to organization in a single transaction.
	CreateWithOrganization(user *models.User, org *models.Organization) error

	// FindByID finds a user by ID
	FindByID(id uuid.UUID) (*models.User, error)

	// FindByIDWithOrganization finds a user with the organization preloaded
	FindByIDWithOrganization(id uuid.UUID) (*models.User, error)

	// FindByEmail finds a user by email, case-insensitively
	FindByEmail(email string) (*models.User, error)

	// FindByInviteToken finds a pending invite placeholder by its token
	FindByInviteToken(token string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error

	// ListActiveByOrganization lists active members of an organization,
	// newest first
	ListActiveByOrganization(orgID uuid.UUID) ([]models.User, error)
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID with the creator preloaded
	FindByID(id uuid.UUID) (*models.Organization, error)

	// FindBySlug finds an organization by slug
	FindBySlug(slug string) (*models.Organization, error)

	// Update persists changes to an organization
	Update(org *models.Organization) error
}

// TaskFilter holds filtering and pagination options for listing tasks.
// OrganizationID is always required; RestrictToUserID narrows the scope to
// tasks the user created or is assigned to (member visibility).
type TaskFilter struct {
	OrganizationID   uuid.UUID
	Status           *models.TaskStatus
	Priority         *models.TaskPriority
	Category         *models.TaskCategory
	AssignedToID     *uuid.UUID
	RestrictToUserID *uuid.UUID
	Page             int
	Limit            int
}

// TaskStats aggregates task counts over a filter scope.
type TaskStats struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Expired    int64 `json:"expired"`
	Overdue    int64 `json:"overdue"`
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task scoped to an organization, with optional preloads
	FindByID(id, orgID uuid.UUID, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update persists changes to a task
	Update(task *models.Task) error

	// Delete hard-deletes a task scoped to an organization
	Delete(id, orgID uuid.UUID) error

	// Stats aggregates counts over the filter scope (pagination ignored)
	Stats(filter TaskFilter, now time.Time) (*TaskStats, error)

	// ExpireOverdue transitions every overdue open task to expired and
	// returns the number of rows modified
	ExpireOverdue(now time.Time) (int64, error)

	// AddComment appends a comment to a task
	AddComment(comment *models.TaskComment) error

	// AddAttachment appends attachment metadata to a task
	AddAttachment(attachment *models.TaskAttachment) error
}
