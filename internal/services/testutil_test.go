package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	orgRepo     repository.OrganizationRepository
	taskRepo    repository.TaskRepository
	authService *AuthService
	orgService  *OrganizationService
	taskService *TaskService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Task{},
		&models.TaskComment{},
		&models.TaskAttachment{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	return &testEnv{
		db:          db,
		userRepo:    userRepo,
		orgRepo:     orgRepo,
		taskRepo:    taskRepo,
		authService: NewAuthService(userRepo, orgRepo),
		orgService:  NewOrganizationService(orgRepo, userRepo, "http://localhost:8080"),
		taskService: NewTaskService(taskRepo, userRepo),
	}
}

func (env *testEnv) createOrganization(t *testing.T, name string) *models.Organization {
	t.Helper()

	org := &models.Organization{
		ID:          uuid.New(),
		Name:        name,
		Slug:        uuid.NewString(),
		Settings:    defaultSettings(),
		IsActive:    true,
		CreatedByID: uuid.New(),
	}
	require.NoError(t, env.db.Create(org).Error)
	return org
}

func (env *testEnv) createUser(t *testing.T, org *models.Organization, email string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hashedpassword",
		Role:         role,
		IsActive:     true,
	}
	if org != nil {
		user.OrganizationID = &org.ID
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createTask(t *testing.T, org *models.Organization, creator *models.User, title string, status models.TaskStatus) *models.Task {
	t.Helper()

	task := &models.Task{
		ID:             uuid.New(),
		Title:          title,
		Status:         status,
		Priority:       models.TaskPriorityMedium,
		Category:       models.TaskCategoryFeature,
		CreatedByID:    creator.ID,
		OrganizationID: org.ID,
	}
	if status == models.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}
	require.NoError(t, env.db.Create(task).Error)
	return task
}
