package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/schoolping/schoolping-backend/internal/handlers"
	"github.com/schoolping/schoolping-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	PushHandler    *handlers.PushHandler
	TopicHandler   *handlers.TopicHandler
	PublishHandler *handlers.PublishHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/auth/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	// Push registration
	protected.POST("/push/register", cfg.PushHandler.Register)
	protected.POST("/push/deregister", cfg.PushHandler.Deregister)
	// Topics
	protected.GET("/topics/list", cfg.TopicHandler.List)
	protected.POST("/topics/ensure", cfg.TopicHandler.Ensure)
	protected.POST("/topics/subscribe", cfg.TopicHandler.Subscribe)
	protected.POST("/topics/unsubscribe", cfg.TopicHandler.Unsubscribe)
	// Publishing
	protected.POST("/publish/course", cfg.PublishHandler.PublishToCourse)
	protected.POST("/publish/role", cfg.PublishHandler.PublishToRole)
	protected.POST("/publish/device", cfg.PublishHandler.PublishToDevice)

	return router
}
