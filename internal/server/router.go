// Package server assembles the gin engine: middleware order, route table and
// access gates.
package server

import (
	"time"

	"task-manager/api/internal/handlers"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	AuthService     services.AuthService
	RegisterService services.RegisterService
	TaskService     services.TaskService
	UserService     services.UserService
	Health          *monitoring.HealthChecker
	Logger          zerolog.Logger
	// RateLimiter guards the unauthenticated credential routes. Nil disables
	// rate limiting.
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.RecoveryWithLog(deps.Logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	registerHandler := handlers.NewRegisterHandler(deps.RegisterService)
	taskHandler := handlers.NewTaskHandler(deps.TaskService)
	userHandler := handlers.NewUserHandler(deps.UserService)

	if deps.Health != nil {
		router.GET("/health", deps.Health.Liveness)
		router.GET("/health/ready", deps.Health.Readiness)
	}
	router.GET("/metrics", monitoring.MetricsHandler())

	public := router.Group("")
	if deps.RateLimiter != nil {
		public.Use(deps.RateLimiter.Middleware())
	}
	{
		public.POST("/token", authHandler.Token)
		public.POST("/token/refresh", authHandler.Refresh)
		public.POST("/register", registerHandler.Registration)
	}

	protected := router.Group("")
	protected.Use(middleware.Authenticate(deps.AuthService, deps.Logger))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", userHandler.Me)

		protected.GET("/tasks", taskHandler.ListTasks)
		protected.POST("/tasks", taskHandler.CreateTask)
		protected.GET("/tasks/:id", taskHandler.GetTask)
		protected.PUT("/tasks/:id", taskHandler.UpdateTask)
		protected.PATCH("/tasks/:id", taskHandler.PartialUpdateTask)
		protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
	}

	admin := protected.Group("/users")
	admin.Use(middleware.RequireRole(services.IsAdmin))
	{
		admin.GET("", userHandler.ListUsers)
		admin.GET("/:id", userHandler.GetUser)
		admin.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
