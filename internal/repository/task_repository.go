package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task scoped to an organization, with optional preloads
func (r *GormTaskRepository) FindByID(id, orgID uuid.UUID, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ? AND organization_id = ?", id, orgID).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// scoped builds the where clause shared by List and Stats.
func (r *GormTaskRepository) scoped(filter TaskFilter) *gorm.DB {
	query := r.db.Model(&models.Task{}).Where("tasks.organization_id = ?", filter.OrganizationID)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.Category != nil {
		query = query.Where("tasks.category = ?", *filter.Category)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.RestrictToUserID != nil {
		query = query.Where(
			r.db.Where("tasks.created_by_id = ?", *filter.RestrictToUserID).
				Or("tasks.assigned_to_id = ?", *filter.RestrictToUserID),
		)
	}

	return query
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	query := r.scoped(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.created_at DESC")
	if filter.Page > 0 && filter.Limit > 0 {
		offset := (filter.Page - 1) * filter.Limit
		listQuery = listQuery.Offset(offset).Limit(filter.Limit)
	}

	var tasks []models.Task
	if err := listQuery.Preload("CreatedBy").Preload("AssignedTo").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists changes to a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Delete hard-deletes a task and its comments and attachment metadata
func (r *GormTaskRepository) Delete(id, orgID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAttachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND organization_id = ?", id, orgID).Delete(&models.Task{}).Error
	})
}

// Stats aggregates counts over the filter scope
func (r *GormTaskRepository) Stats(filter TaskFilter, now time.Time) (*TaskStats, error) {
	stats := &TaskStats{}

	type statusCount struct {
		Status models.TaskStatus
		Count  int64
	}

	var counts []statusCount
	if err := r.scoped(filter).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	for _, c := range counts {
		stats.Total += c.Count
		switch c.Status {
		case models.TaskStatusTodo:
			stats.Todo = c.Count
		case models.TaskStatusInProgress:
			stats.InProgress = c.Count
		case models.TaskStatusCompleted:
			stats.Completed = c.Count
		case models.TaskStatusExpired:
			stats.Expired = c.Count
		}
	}

	if err := r.scoped(filter).
		Where("tasks.due_date IS NOT NULL AND tasks.due_date < ?", now).
		Where("tasks.status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusExpired}).
		Count(&stats.Overdue).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// ExpireOverdue transitions every overdue open task to expired. The update
// never touches completed_at; expired is not completed.
func (r *GormTaskRepository) ExpireOverdue(now time.Time) (int64, error) {
	result := r.db.Model(&models.Task{}).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Where("status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusExpired}).
		Updates(map[string]interface{}{"status": models.TaskStatusExpired})

	return result.RowsAffected, result.Error
}

// AddComment appends a comment to a task
func (r *GormTaskRepository) AddComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// AddAttachment appends attachment metadata to a task
func (r *GormTaskRepository) AddAttachment(attachment *models.TaskAttachment) error {
	return r.db.Create(attachment).Error
}
