package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/fieldstone/task-tracker-api/internal/config"
	"github.com/fieldstone/task-tracker-api/internal/database"
	"github.com/fieldstone/task-tracker-api/internal/handlers"
	"github.com/fieldstone/task-tracker-api/internal/middleware"
	"github.com/fieldstone/task-tracker-api/internal/repository"
	"github.com/fieldstone/task-tracker-api/internal/services"
	"github.com/fieldstone/task-tracker-api/internal/sweeper"
	"github.com/fieldstone/task-tracker-api/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Services
	tokens := token.NewManager(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, orgRepo)
	orgService := services.NewOrganizationService(orgRepo, userRepo, cfg.AppBaseURL)
	taskService := services.NewTaskService(taskRepo, userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, tokens)
	taskHandler := handlers.NewTaskHandler(taskService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	healthHandler := handlers.NewHealthHandler(db)

	r := gin.Default()

	// Health probes (public)
	r.GET("/health", healthHandler.Health)
	r.GET("/health/ready", healthHandler.Ready)
	r.GET("/health/live", healthHandler.Live)

	// Auth routes (public except /auth/me)
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/join", authHandler.Join)
		auth.GET("/me", middleware.RequireAuth(tokens, authService), authHandler.Me)
	}

	// Public invite preview for the join page
	r.GET("/organizations/invite/:token", orgHandler.PreviewInvite)

	// Task routes (protected)
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

	// Organization routes (protected)
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

	// Expiration sweeper on its own timer
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sw := sweeper.New(taskRepo, time.Duration(cfg.SweepInterval)*time.Minute)
	go sw.Run(sweepCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to listen: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := database.Close(db); err != nil {
		log.Printf("Failed to close database: %v", err)
	}

	log.Println("Server exited properly")
}
