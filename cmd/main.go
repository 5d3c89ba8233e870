package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vhvplatform/go-mindtrain-service/internal/consumer"
	"github.com/vhvplatform/go-mindtrain-service/internal/handler"
	"github.com/vhvplatform/go-mindtrain-service/internal/middleware"
	"github.com/vhvplatform/go-mindtrain-service/internal/repository"
	"github.com/vhvplatform/go-mindtrain-service/internal/scheduler"
	"github.com/vhvplatform/go-mindtrain-service/internal/service"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/config"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/logger"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/mongodb"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/rabbitmq"
)

func main() {
	// Initialize logger
	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting MindTrain Service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Initialize MongoDB
	mongoClient, err := mongodb.NewMongoClient(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Initialize RabbitMQ
	rabbitMQClient, err := rabbitmq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", "error", err)
	}
	defer rabbitMQClient.Close()

	// Initialize repository
	userRepo := repository.NewMindTrainUserRepository(mongoClient, repository.TimeoutsConfig{
		Operation:   cfg.Timeouts.Operation,
		Transaction: cfg.Timeouts.Transaction,
	})
	if err := userRepo.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Failed to create indexes", "error", err)
	}

	// Initialize services
	limits := service.LimitsConfig{
		MaxAlarmProfiles:    cfg.Limits.MaxAlarmProfiles,
		MaxNotificationLogs: cfg.Limits.MaxNotificationLogs,
		MaxSyncHealthLogs:   cfg.Limits.MaxSyncHealthLogs,
	}
	profileService := service.NewProfileService(userRepo, limits, log)
	scheduleService := service.NewScheduleService(userRepo, log)
	logService := service.NewLogService(userRepo, limits, log)
	queryService := service.NewQueryService(userRepo, log)

	// Initialize dispatch poller
	dispatchPoller := scheduler.NewDispatchPoller(queryService, rabbitMQClient, cfg.Server.DispatchWindowMins, log)
	if err := dispatchPoller.Start(); err != nil {
		log.Error("Failed to start dispatch poller", "error", err)
	}
	defer dispatchPoller.Stop()

	// Initialize HTTP handlers
	profileHandler := handler.NewProfileHandler(profileService, log)
	scheduleHandler := handler.NewScheduleHandler(scheduleService, log)
	logHandler := handler.NewLogHandler(logService, log)
	queryHandler := handler.NewQueryHandler(queryService, log)

	// Initialize rate limiter
	rateLimiter := middleware.NewUserRateLimiter(cfg.Server.RateLimitPerUser, cfg.Server.RateLimitBurst)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes with rate limiting
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(rateLimiter))
	{
		users := v1.Group("/users/:userId")
		{
			users.PUT("", profileHandler.EnsureUser)
			users.GET("", profileHandler.GetUser)

			users.GET("/profiles", profileHandler.ListProfiles)
			users.POST("/profiles", profileHandler.AddProfile)
			users.GET("/profiles/:profileId", profileHandler.GetProfile)
			users.PATCH("/profiles/:profileId", profileHandler.UpdateProfile)
			users.POST("/profiles/:profileId/activate", profileHandler.ActivateProfile)
			users.DELETE("/profiles/:profileId", profileHandler.DeleteProfile)

			users.GET("/schedule", scheduleHandler.GetSchedule)
			users.PUT("/schedule", scheduleHandler.UpsertSchedule)

			users.POST("/notification-logs", logHandler.AppendNotificationLog)
			users.POST("/sync-health-logs", logHandler.AppendSyncHealthLog)
			users.GET("/notification-logs/failed", logHandler.GetFailedNotifications)
		}

		// Read-side queries for the external dispatcher
		queries := v1.Group("/queries")
		{
			queries.GET("/notification-window", queryHandler.UsersForNotification)
			queries.GET("/needing-sync", queryHandler.UsersNeedingSync)
		}
	}

	// Start RabbitMQ consumer
	outcomeConsumer := consumer.NewOutcomeConsumer(rabbitMQClient, logService, cfg.Retry, log)
	go func() {
		if err := outcomeConsumer.Start(); err != nil {
			log.Error("Failed to start outcome consumer", "error", err)
		}
	}()

	// Start HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("MindTrain Service started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down MindTrain Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("MindTrain Service stopped")
}
