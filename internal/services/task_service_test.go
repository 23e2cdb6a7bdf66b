package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/fieldstone/task-tracker-api/internal/models"
)

type TaskServiceTestSuite struct {
	suite.Suite
	env     *testEnv
	org     *models.Organization
	admin   *models.User
	manager *models.User
	member  *models.User
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.env = setupTestEnv(s.T())
	s.org = s.env.createOrganization(s.T(), "Acme")
	s.admin = s.env.createUser(s.T(), s.org, "admin@example.com", models.RoleAdmin)
	s.manager = s.env.createUser(s.T(), s.org, "manager@example.com", models.RoleManager)
	s.member = s.env.createUser(s.T(), s.org, "member@example.com", models.RoleMember)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) TestCreate_Defaults() {
	task, err := s.env.taskService.Create(s.manager, CreateTaskInput{
		Title:    "Fix login flow",
		Category: models.TaskCategoryBug,
	})
	s.Require().NoError(err)

	s.Equal(models.TaskStatusTodo, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.Equal(s.org.ID, task.OrganizationID)
	s.Equal(s.manager.ID, task.CreatedByID)
	s.Nil(task.CompletedAt)
}

func (s *TaskServiceTestSuite) TestCreate_Validation() {
	_, err := s.env.taskService.Create(s.manager, CreateTaskInput{Category: models.TaskCategoryBug})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.env.taskService.Create(s.manager, CreateTaskInput{Title: "No category"})
	s.ErrorIs(err, ErrCategoryRequired)

	_, err = s.env.taskService.Create(s.manager, CreateTaskInput{Title: "Bad", Category: "chore"})
	s.ErrorIs(err, ErrInvalidCategory)

	_, err = s.env.taskService.Create(s.manager, CreateTaskInput{
		Title: "Bad", Category: models.TaskCategoryBug, Priority: "urgent",
	})
	s.ErrorIs(err, ErrInvalidPriority)
}

func (s *TaskServiceTestSuite) TestCreate_MemberForbidden() {
	_, err := s.env.taskService.Create(s.member, CreateTaskInput{
		Title: "Not allowed", Category: models.TaskCategoryBug,
	})
	s.ErrorIs(err, ErrForbidden)
}

func (s *TaskServiceTestSuite) TestCreate_CrossOrganizationAssigneeRejected() {
	other := s.env.createOrganization(s.T(), "Globex")
	outsider := s.env.createUser(s.T(), other, "outsider@example.com", models.RoleMember)

	_, err := s.env.taskService.Create(s.manager, CreateTaskInput{
		Title:        "Bad assignment",
		Category:     models.TaskCategoryBug,
		AssignedToID: &outsider.ID,
	})
	s.ErrorIs(err, ErrInvalidAssignment)
}

func (s *TaskServiceTestSuite) TestCreate_CompletedSetsCompletedAt() {
	task, err := s.env.taskService.Create(s.manager, CreateTaskInput{
		Title:    "Already done",
		Category: models.TaskCategoryImprovement,
		Status:   models.TaskStatusCompleted,
	})
	s.Require().NoError(err)
	s.NotNil(task.CompletedAt)
}

func (s *TaskServiceTestSuite) TestGet_TenantIsolation() {
	other := s.env.createOrganization(s.T(), "Globex")
	outsiderAdmin := s.env.createUser(s.T(), other, "outsider@example.com", models.RoleAdmin)

	task := s.env.createTask(s.T(), s.org, s.manager, "Internal task", models.TaskStatusTodo)

	// a foreign admin sees not-found, not forbidden
	_, err := s.env.taskService.Get(outsiderAdmin, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestGet_MemberVisibility() {
	foreign := s.env.createTask(s.T(), s.org, s.manager, "Managers only", models.TaskStatusTodo)
	_, err := s.env.taskService.Get(s.member, foreign.ID)
	s.ErrorIs(err, ErrForbidden)

	assigned := s.env.createTask(s.T(), s.org, s.manager, "Assigned", models.TaskStatusTodo)
	assigned.AssignedToID = &s.member.ID
	s.Require().NoError(s.env.db.Save(assigned).Error)

	got, err := s.env.taskService.Get(s.member, assigned.ID)
	s.Require().NoError(err)
	s.Equal(assigned.ID, got.ID)
}

func (s *TaskServiceTestSuite) TestUpdate_MemberStatusOnly() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Assigned work", models.TaskStatusTodo)
	task.AssignedToID = &s.member.ID
	s.Require().NoError(s.env.db.Save(task).Error)

	status := models.TaskStatusInProgress
	updated, err := s.env.taskService.Update(s.member, task.ID, UpdateTaskInput{Status: &status})
	s.Require().NoError(err)
	s.Equal(models.TaskStatusInProgress, updated.Status)
}

func (s *TaskServiceTestSuite) TestUpdate_MemberMixedPayloadRejected() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Assigned work", models.TaskStatusTodo)
	task.AssignedToID = &s.member.ID
	s.Require().NoError(s.env.db.Save(task).Error)

	status := models.TaskStatusInProgress
	title := "Sneaky rename"
	_, err := s.env.taskService.Update(s.member, task.ID, UpdateTaskInput{
		Status: &status,
		Title:  &title,
	})
	s.ErrorIs(err, ErrForbidden)

	// the whole payload is rejected, nothing persists
	var kept models.Task
	s.Require().NoError(s.env.db.First(&kept, "id = ?", task.ID).Error)
	s.Equal("Assigned work", kept.Title)
	s.Equal(models.TaskStatusTodo, kept.Status)
}

func (s *TaskServiceTestSuite) TestUpdate_MemberUnassignedForbidden() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Unassigned", models.TaskStatusTodo)

	status := models.TaskStatusInProgress
	_, err := s.env.taskService.Update(s.member, task.ID, UpdateTaskInput{Status: &status})
	s.ErrorIs(err, ErrForbidden)
}

func (s *TaskServiceTestSuite) TestUpdate_CompletedAtLifecycle() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Lifecycle", models.TaskStatusTodo)

	completed := models.TaskStatusCompleted
	updated, err := s.env.taskService.Update(s.manager, task.ID, UpdateTaskInput{Status: &completed})
	s.Require().NoError(err)
	s.Require().NotNil(updated.CompletedAt)
	firstCompletion := *updated.CompletedAt

	// completing an already-completed task keeps the original timestamp
	updated, err = s.env.taskService.Update(s.manager, task.ID, UpdateTaskInput{Status: &completed})
	s.Require().NoError(err)
	s.Require().NotNil(updated.CompletedAt)
	s.WithinDuration(firstCompletion, *updated.CompletedAt, time.Second)

	// reopening clears it
	todo := models.TaskStatusTodo
	updated, err = s.env.taskService.Update(s.manager, task.ID, UpdateTaskInput{Status: &todo})
	s.Require().NoError(err)
	s.Nil(updated.CompletedAt)
}

func (s *TaskServiceTestSuite) TestUpdate_ClearDueDateAndAssignee() {
	due := time.Now().Add(48 * time.Hour)
	task, err := s.env.taskService.Create(s.manager, CreateTaskInput{
		Title:        "Clearable",
		Category:     models.TaskCategoryFeature,
		DueDate:      &due,
		AssignedToID: &s.member.ID,
	})
	s.Require().NoError(err)

	updated, err := s.env.taskService.Update(s.manager, task.ID, UpdateTaskInput{
		SetDueDate:  true,
		SetAssignee: true,
	})
	s.Require().NoError(err)
	s.Nil(updated.DueDate)
	s.Nil(updated.AssignedToID)
}

func (s *TaskServiceTestSuite) TestUpdate_ReassignmentRevalidated() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Reassign", models.TaskStatusTodo)

	other := s.env.createOrganization(s.T(), "Globex")
	outsider := s.env.createUser(s.T(), other, "outsider@example.com", models.RoleMember)

	_, err := s.env.taskService.Update(s.manager, task.ID, UpdateTaskInput{
		SetAssignee:  true,
		AssignedToID: &outsider.ID,
	})
	s.ErrorIs(err, ErrInvalidAssignment)
}

func (s *TaskServiceTestSuite) TestDelete_Permissions() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Doomed", models.TaskStatusTodo)

	s.ErrorIs(s.env.taskService.Delete(s.member, task.ID), ErrForbidden)

	s.Require().NoError(s.env.taskService.Delete(s.admin, task.ID))
	_, err := s.env.taskService.Get(s.admin, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestDelete_RemovesCommentsAndAttachments() {
	task := s.env.createTask(s.T(), s.org, s.manager, "With extras", models.TaskStatusTodo)

	_, err := s.env.taskService.AddComment(s.manager, task.ID, "a note")
	s.Require().NoError(err)
	_, err = s.env.taskService.AddAttachment(s.manager, task.ID, AttachmentInput{
		Filename: "f.bin", OriginalName: "spec.pdf", Size: 1024,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.env.taskService.Delete(s.manager, task.ID))

	var comments int64
	s.Require().NoError(s.env.db.Model(&models.TaskComment{}).Where("task_id = ?", task.ID).Count(&comments).Error)
	s.Zero(comments)

	var attachments int64
	s.Require().NoError(s.env.db.Model(&models.TaskAttachment{}).Where("task_id = ?", task.ID).Count(&attachments).Error)
	s.Zero(attachments)
}

func (s *TaskServiceTestSuite) TestList_MemberScope() {
	s.env.createTask(s.T(), s.org, s.manager, "Foreign", models.TaskStatusTodo)
	mine := s.env.createTask(s.T(), s.org, s.member, "Mine", models.TaskStatusTodo)
	assigned := s.env.createTask(s.T(), s.org, s.manager, "Assigned", models.TaskStatusTodo)
	assigned.AssignedToID = &s.member.ID
	s.Require().NoError(s.env.db.Save(assigned).Error)

	tasks, total, err := s.env.taskService.List(s.member, ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	ids := make(map[uuid.UUID]bool, len(tasks))
	for _, task := range tasks {
		ids[task.ID] = true
	}
	s.True(ids[mine.ID])
	s.True(ids[assigned.ID])
}

func (s *TaskServiceTestSuite) TestList_Filters() {
	s.env.createTask(s.T(), s.org, s.manager, "Todo one", models.TaskStatusTodo)
	s.env.createTask(s.T(), s.org, s.manager, "Done one", models.TaskStatusCompleted)

	status := models.TaskStatusCompleted
	tasks, total, err := s.env.taskService.List(s.manager, ListTasksInput{Status: &status})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(tasks, 1)
	s.Equal("Done one", tasks[0].Title)
}

func (s *TaskServiceTestSuite) TestList_Pagination() {
	s.env.createTask(s.T(), s.org, s.manager, "First", models.TaskStatusTodo)
	s.env.createTask(s.T(), s.org, s.manager, "Second", models.TaskStatusTodo)

	tasks, total, err := s.env.taskService.List(s.manager, ListTasksInput{Page: 1, Limit: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(tasks, 1)

	tasks, _, err = s.env.taskService.List(s.manager, ListTasksInput{Page: 2, Limit: 1})
	s.Require().NoError(err)
	s.Len(tasks, 1)
}

func (s *TaskServiceTestSuite) TestList_TenantIsolation() {
	other := s.env.createOrganization(s.T(), "Globex")
	outsider := s.env.createUser(s.T(), other, "outsider@example.com", models.RoleAdmin)
	s.env.createTask(s.T(), other, outsider, "Their task", models.TaskStatusTodo)

	s.env.createTask(s.T(), s.org, s.manager, "Our task", models.TaskStatusTodo)

	tasks, total, err := s.env.taskService.List(s.admin, ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(tasks, 1)
	s.Equal("Our task", tasks[0].Title)
}

func (s *TaskServiceTestSuite) TestStats() {
	s.env.createTask(s.T(), s.org, s.manager, "A", models.TaskStatusTodo)
	s.env.createTask(s.T(), s.org, s.manager, "B", models.TaskStatusTodo)
	s.env.createTask(s.T(), s.org, s.manager, "C", models.TaskStatusInProgress)
	s.env.createTask(s.T(), s.org, s.manager, "D", models.TaskStatusCompleted)
	s.env.createTask(s.T(), s.org, s.manager, "E", models.TaskStatusExpired)

	stats, err := s.env.taskService.Stats(s.manager)
	s.Require().NoError(err)

	s.Equal(int64(5), stats.Total)
	s.Equal(int64(2), stats.Todo)
	s.Equal(int64(1), stats.InProgress)
	s.Equal(int64(1), stats.Completed)
	s.Equal(int64(1), stats.Expired)
}

func (s *TaskServiceTestSuite) TestStats_OverdueCountsOpenPastDue() {
	past := time.Now().Add(-24 * time.Hour)

	overdue := s.env.createTask(s.T(), s.org, s.manager, "Late", models.TaskStatusTodo)
	overdue.DueDate = &past
	s.Require().NoError(s.env.db.Save(overdue).Error)

	// completed past-due tasks are not overdue
	done := s.env.createTask(s.T(), s.org, s.manager, "Late but done", models.TaskStatusCompleted)
	done.DueDate = &past
	s.Require().NoError(s.env.db.Save(done).Error)

	stats, err := s.env.taskService.Stats(s.manager)
	s.Require().NoError(err)
	s.Equal(int64(1), stats.Overdue)
}

func (s *TaskServiceTestSuite) TestAddComment() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Discussed", models.TaskStatusTodo)

	updated, err := s.env.taskService.AddComment(s.manager, task.ID, "looks good")
	s.Require().NoError(err)
	s.Require().Len(updated.Comments, 1)
	s.Equal("looks good", updated.Comments[0].Text)
	s.Equal(s.manager.ID, updated.Comments[0].UserID)

	_, err = s.env.taskService.AddComment(s.manager, task.ID, "   ")
	s.ErrorIs(err, ErrCommentRequired)
}

func (s *TaskServiceTestSuite) TestAddComment_MemberNeedsVisibility() {
	task := s.env.createTask(s.T(), s.org, s.manager, "Private", models.TaskStatusTodo)

	_, err := s.env.taskService.AddComment(s.member, task.ID, "drive-by")
	s.ErrorIs(err, ErrForbidden)
}
