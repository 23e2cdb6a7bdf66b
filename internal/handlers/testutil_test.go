package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldstone/task-tracker-api/internal/dto"
	"github.com/fieldstone/task-tracker-api/internal/middleware"
	"github.com/fieldstone/task-tracker-api/internal/models"
	"github.com/fieldstone/task-tracker-api/internal/repository"
	"github.com/fieldstone/task-tracker-api/internal/services"
	"github.com/fieldstone/task-tracker-api/internal/token"
)

type handlerTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	tokens      *token.Manager
	authService *services.AuthService
	orgService  *services.OrganizationService
	taskService *services.TaskService
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	tokens := token.NewManager("handler-test-secret")
	authService := services.NewAuthService(userRepo, orgRepo)
	orgService := services.NewOrganizationService(orgRepo, userRepo, "http://localhost:8080")
	taskService := services.NewTaskService(taskRepo, userRepo)

	authHandler := NewAuthHandler(authService, tokens)
	taskHandler := NewTaskHandler(taskService)
	orgHandler := NewOrganizationHandler(orgService)

	r := gin.New()

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/join", authHandler.Join)
		auth.GET("/me", middleware.RequireAuth(tokens, authService), authHandler.Me)
	}

	r.GET("/organizations/invite/:token", orgHandler.PreviewInvite)

	tasks := r.Group("/tasks")
	tasks.Use(middleware.RequireAuth(tokens, authService))
	{
		tasks.GET("", taskHandler.List)
		tasks.POST("", taskHandler.Create)
		tasks.GET("/stats/overview", taskHandler.Stats)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
		tasks.POST("/:id/comments", taskHandler.AddComment)
		tasks.POST("/:id/attachments", taskHandler.AddAttachment)
	}

	orgs := r.Group("/organizations")
	orgs.Use(middleware.RequireAuth(tokens, authService))
	{
		orgs.GET("", orgHandler.Get)
		orgs.PUT("/settings", orgHandler.UpdateSettings)
		orgs.GET("/members", orgHandler.ListMembers)
		orgs.POST("/invite", orgHandler.Invite)
		orgs.PUT("/members/:id/role", orgHandler.ChangeMemberRole)
		orgs.DELETE("/members/:id", orgHandler.RemoveMember)
	}

	return &handlerTestEnv{
		db:          db,
		router:      r,
		tokens:      tokens,
		authService: authService,
		orgService:  orgService,
		taskService: taskService,
	}
}

// registerUser creates an admin with a fresh organization and returns the
// user together with a valid bearer token.
func (env *handlerTestEnv) registerUser(t *testing.T, email, orgName string) (*models.User, string) {
	t.Helper()

	user, _, err := env.authService.Register(services.RegisterInput{
		Name:             "Test User",
		Email:            email,
		Password:         "supersecret",
		OrganizationName: orgName,
	})
	require.NoError(t, err)

	bearer, err := env.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, bearer
}

// inviteAndJoin adds a member to the admin's organization and returns the
// member with a valid bearer token.
func (env *handlerTestEnv) inviteAndJoin(t *testing.T, admin *models.User, email string, role models.Role) (*models.User, string) {
	t.Helper()

	invite, err := env.orgService.InviteMember(admin, email, role)
	require.NoError(t, err)

	user, err := env.authService.AcceptInvite(services.AcceptInviteInput{
		Name:        "Invited User",
		Email:       email,
		Password:    "supersecret",
		InviteToken: invite.Token,
	})
	require.NoError(t, err)

	bearer, err := env.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, bearer
}

func (env *handlerTestEnv) request(t *testing.T, method, path, bearer string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) dto.TaskDTO {
	t.Helper()

	var task dto.TaskDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}
