package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-collab/backend/internal/cache"
	"task-collab/backend/internal/config"
	"task-collab/backend/internal/database"
	"task-collab/backend/internal/handlers"
	"task-collab/backend/internal/middleware"
	"task-collab/backend/internal/models"
	"task-collab/backend/internal/monitoring"
	"task-collab/backend/internal/services"
	"task-collab/backend/internal/storage"
	"task-collab/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logLevel,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	db := pool.DB

	if err := db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Tag{},
		&models.Task{},
		&models.Comment{},
		&models.FileAttachment{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	redisCache := cache.NewRedisCache(redisClient)

	blobs := storage.NewLocalStore(cfg.Uploads.Dir)
	jobQueue := worker.NewJobQueue(redisClient)
	cleanupWorker := worker.NewWorker(redisClient, cfg.Worker.Queues)
	cleanupWorker.RegisterBlobCleanup(blobs)
	cleanupWorker.Start(cfg.Worker.Concurrency)

	tagService := services.NewTagService()
	userService := services.NewUserService()
	taskService := services.NewCachedTaskService(
		services.NewTaskService(tagService, userService), redisCache)
	commentService := services.NewCommentService()
	attachmentService := services.NewAttachmentService(blobs, jobQueue, cfg.Uploads.MaxBytes)
	analyticsService := services.NewCachedAnalyticsService(
		services.NewAnalyticsService(), redisCache)
	authService := services.NewAuthService()
	registerService := services.NewRegisterService()

	taskHandler := handlers.NewTaskHandler(db, taskService)
	commentHandler := handlers.NewCommentHandler(db, commentService)
	fileHandler := handlers.NewFileHandler(db, attachmentService)
	analyticsHandler := handlers.NewAnalyticsHandler(db, analyticsService)
	tagHandler := handlers.NewTagHandler(db, tagService)
	authHandler := handlers.NewAuthHandler(db, authService)
	registerHandler := handlers.NewRegisterHandler(db, registerService)
	refreshHandler := handlers.NewRefreshHandler(db, authService)
	logoutHandler := handlers.NewLogoutHandler(db, authService)
	userHandler := handlers.NewUserHandler(db, userService)

	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return pool.Health()
	})
	monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
		return redisCache.Ping(ctx)
	})

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstSize,
			cfg.RateLimit.CleanupInterval,
		))
	}

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/health/ready", monitoring.ReadinessHandler())
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	api := router.Group("/api")
	{
		api.POST("/register/", registerHandler.Registration)
		api.POST("/token/", authHandler.Token)
		api.POST("/token/refresh/", refreshHandler.Refresh)
		api.POST("/logout/", logoutHandler.Logout)

		authorized := api.Group("")
		authorized.Use(middleware.Authenticate())
		{
			authorized.GET("/tasks/", taskHandler.GetTasks)
			authorized.POST("/tasks/", taskHandler.CreateTask)
			authorized.POST("/tasks/bulk-create/", taskHandler.BulkCreate)
			authorized.GET("/tasks/:id/", taskHandler.GetTaskByID)
			authorized.PATCH("/tasks/:id/", taskHandler.UpdateTask)
			authorized.DELETE("/tasks/:id/", taskHandler.DeleteTask)
			authorized.POST("/tasks/:id/assign-user/:user_id/", taskHandler.AssignUser)

			authorized.GET("/comments/", commentHandler.GetComments)
			authorized.POST("/comments/", commentHandler.CreateComment)
			authorized.DELETE("/comments/:id/", commentHandler.DeleteComment)

			authorized.GET("/file-upload/", fileHandler.GetAttachments)
			authorized.POST("/file-upload/", fileHandler.CreateAttachment)
			authorized.GET("/file-upload/:id/download/", fileHandler.DownloadAttachment)
			authorized.DELETE("/file-upload/:id/", fileHandler.DeleteAttachment)

			authorized.GET("/analytics/overview/", analyticsHandler.Overview)
			authorized.GET("/analytics/user-performance/", analyticsHandler.UserPerformance)
			authorized.GET("/analytics/trends/", analyticsHandler.Trends)
			authorized.GET("/analytics/export/", analyticsHandler.Export)

			authorized.GET("/tags/", tagHandler.GetTags)

			authorized.GET("/users/", userHandler.GetUsers)
			authorized.GET("/users/me/", userHandler.GetUserProfile)
			authorized.GET("/users/:user_id/", userHandler.GetUserProfileByUserId)
		}
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	cleanupWorker.Stop()
	if err := pool.Close(); err != nil {
		log.Printf("closing database: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("closing redis: %v", err)
	}
}
