package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/roommates-api/internal/config"
	"github.com/yukikurage/roommates-api/internal/constants"
	"github.com/yukikurage/roommates-api/internal/database"
	"github.com/yukikurage/roommates-api/internal/handlers"
	"github.com/yukikurage/roommates-api/internal/logging"
	"github.com/yukikurage/roommates-api/internal/metrics"
	"github.com/yukikurage/roommates-api/internal/middleware"
	"github.com/yukikurage/roommates-api/internal/realtime"
	"github.com/yukikurage/roommates-api/internal/repository"
	"github.com/yukikurage/roommates-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		slog.Error("Failed to create session store", "store", cfg.SessionStore, "error", err)
		os.Exit(1)
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		slog.Warn("OPENAI_API_KEY not set, task suggestions are disabled")
	}

	hub := realtime.NewHub()
	defer hub.Close()

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	groupService := services.NewGroupService(groupRepo, userRepo, hub)
	authService := services.NewAuthService(userRepo, groupService)
	taskService := services.NewTaskService(taskRepo, groupService, aiService, hub, cfg.Location())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	groupHandler := handlers.NewGroupHandler(groupService)
	taskHandler := handlers.NewTaskHandler(taskService)
	eventHandler := handlers.NewEventHandler(hub)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), metrics.GinMiddleware())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Roommates API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API routes
	api := r.Group("/api")
	{
		api.GET("/ping", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.DELETE("/me", middleware.RequireAuth(), authHandler.DeleteAccount)
		}

		// Group routes (protected)
		group := api.Group("/group")
		group.Use(middleware.RequireAuth())
		{
			group.GET("", groupHandler.GetGroup)
			group.POST("", groupHandler.CreateGroup)
			group.PATCH("", groupHandler.UpdateGroup)
			group.POST("/join", groupHandler.JoinGroup)
			group.POST("/leave", groupHandler.LeaveGroup)
			group.POST("/transfer", groupHandler.TransferOwnership)
			group.POST("/regenerate-code", groupHandler.RegenerateJoinCode)
			group.DELETE("/members/:user_id", groupHandler.RemoveMember)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			taskAccess := middleware.RequireTaskAccess(taskService)

			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/schedule", taskHandler.ScheduleWeek)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PATCH("/:id", taskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskAccess, taskHandler.DeleteTask)
			tasks.POST("/:id/assign", taskAccess, taskHandler.AssignTask)
			tasks.POST("/:id/unassign", taskAccess, taskHandler.UnassignTask)
			tasks.PATCH("/:id/status", taskAccess, taskHandler.UpdateTaskStatus)
		}

		api.GET("/events", middleware.RequireAuth(), middleware.RequireGroupMember(groupService), eventHandler.Stream)
	}

	// Start server
	addr := ":" + cfg.Port
	slog.Info("Server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	// Configure session options based on environment
	options := sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}

	switch cfg.SessionStore {
	case "cookie":
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	default:
		store, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			cfg.RedisHost+":"+cfg.RedisPort,
			"", // username (empty for default user)
			"", // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, err
		}
		store.Options(options)
		return store, nil
	}
}
