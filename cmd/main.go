package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/schoolping/schoolping-backend/internal/db"
	"github.com/schoolping/schoolping-backend/internal/gateway"
	"github.com/schoolping/schoolping-backend/internal/handlers"
	"github.com/schoolping/schoolping-backend/internal/logger"
	"github.com/schoolping/schoolping-backend/internal/middleware"
	"github.com/schoolping/schoolping-backend/internal/repos"
	"github.com/schoolping/schoolping-backend/internal/server"
	"github.com/schoolping/schoolping-backend/internal/services"
	"github.com/schoolping/schoolping-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	roleRepo := repos.NewRoleRepo(thePG, log)
	staffRepo := repos.NewStaffRepo(thePG, log)
	studentRepo := repos.NewStudentRepo(thePG, log)
	guardianRepo := repos.NewGuardianRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	deviceRepo := repos.NewDeviceRepo(thePG, log)
	topicRepo := repos.NewTopicRepo(thePG, log)
	subscriptionRepo := repos.NewSubscriptionRepo(thePG, log)

	_ = roleRepo
	_ = courseRepo

	// Push gateway
	log.Info("Setting up push gateway from main...")
	gw, err := gateway.NewSNSGateway(context.Background(), log)
	if err != nil {
		log.Error("Could not init SNS gateway", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	topicService := services.NewTopicService(thePG, log, topicRepo, deviceRepo, subscriptionRepo, gw)
	registrarService := services.NewRegistrarService(thePG, log, userRepo, staffRepo, studentRepo, guardianRepo, deviceRepo, subscriptionRepo, topicService, gw)
	publishService := services.NewPublishService(thePG, log, staffRepo, deviceRepo, topicService, gw)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	pushHandler := handlers.NewPushHandler(registrarService)
	topicHandler := handlers.NewTopicHandler(topicService)
	publishHandler := handlers.NewPublishHandler(publishService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		PushHandler:    pushHandler,
		TopicHandler:   topicHandler,
		PublishHandler: publishHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
