package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftwall/internal/admission"
	"giftwall/internal/handlers"
	"giftwall/internal/jobs"
	"giftwall/internal/lifecycle"
	"giftwall/internal/moderation"
	"giftwall/internal/posts"
	"giftwall/internal/reactions"
	"giftwall/internal/rules"
	"giftwall/internal/settings"
	"giftwall/pkg/config"
	"giftwall/pkg/jwt"
	"giftwall/pkg/localday"
	"giftwall/pkg/logger"
	"giftwall/pkg/middleware"
	"giftwall/pkg/s3"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func Run(cfg *config.Config, log *logger.Logger, db *gorm.DB, redisClient *redis.Client, s3Client *s3.Client, provider moderation.Provider) {
	jwtService := jwt.NewService(cfg.JWTSecret)

	loc, err := localday.Location(cfg.EventTimezone)
	if err != nil {
		log.Warn("unknown event timezone %q, falling back to UTC", cfg.EventTimezone)
	}

	// Initialize services
	gate := moderation.NewGate(provider, log)
	controller := admission.NewController(db, gate, loc)
	settingsService := settings.NewService(db)
	rulesRepo := rules.NewRepository(db)
	matcher := rules.NewMatcher(log)
	postsRepo := posts.NewRepository(db)
	postsService := posts.NewService(postsRepo, rulesRepo, matcher, controller, settingsService, s3Client, redisClient, log)
	reactionsService := reactions.NewService(db)

	var uploader lifecycle.BackupUploader
	if s3Client != nil && cfg.S3BackupBucketName != "" {
		uploader = lifecycle.NewS3BackupUploader(s3Client)
	}
	lifecycleService := lifecycle.NewService(db, settingsService, s3Client, uploader, log)

	// Initialize HTTP handlers
	submissionHandler := handlers.NewSubmissionHandler(postsService, log)
	feedHandler := handlers.NewFeedHandler(postsService, log)
	reactionHandler := handlers.NewReactionHandler(reactionsService, log)
	adminHandler := handlers.NewAdminHandler(db, jwtService, postsService, settingsService, rulesRepo, log)
	lifecycleHandler := handlers.NewLifecycleHandler(lifecycleService, log)

	// Setup router
	gin.SetMode(cfg.GinMode)
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Device-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public guest routes, keyed by the X-Device-ID header. The redis
	// perimeter limit is a coarse outer guard; the admission controller
	// enforces the exact per-device hourly quota.
	public := api.Group("")
	public.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	{
		public.POST("/events/:event_id/posts", submissionHandler.Submit)
		public.PUT("/posts/:id", submissionHandler.Edit)
		public.DELETE("/posts/:id", submissionHandler.Delete)

		public.GET("/events/:event_id/blessings", feedHandler.Blessings)
		public.GET("/events/:event_id/gallery", feedHandler.Gallery)
		public.GET("/posts/:id", feedHandler.GetPost)

		public.POST("/posts/:id/reactions/toggle", reactionHandler.Toggle)
		public.GET("/posts/:id/reactions", reactionHandler.Get)
	}

	api.POST("/admin/login", adminHandler.Login)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService))
	admin.Use(middleware.RequireRole("admin"))
	{
		admin.GET("/events/:event_id/pending", adminHandler.Pending)
		admin.POST("/posts/:id/approve", adminHandler.Approve)
		admin.DELETE("/posts/:id", adminHandler.DeletePost)

		admin.GET("/events/:event_id/settings", adminHandler.GetSettings)
		admin.PUT("/events/:event_id/settings", adminHandler.UpdateSettings)

		admin.GET("/rules", adminHandler.ListRules)
		admin.POST("/rules", adminHandler.CreateRule)
		admin.PUT("/rules/:id/active", adminHandler.SetRuleActive)
	}

	cron := api.Group("/cron")
	cron.Use(middleware.CronAuthMiddleware(cfg.CronSecret, cfg.CronTrustedHeader))
	{
		cron.POST("/lifecycle", lifecycleHandler.RunLifecycle)
		cron.POST("/drive-sync", lifecycleHandler.RunDriveSync)
	}

	// In-process scheduler for deployments without an external cron
	var scheduler *jobs.Scheduler
	if cfg.CronInProcess {
		scheduler, err = jobs.NewScheduler(lifecycleService, log)
		if err != nil {
			log.Error("Failed to start in-process scheduler: %v", err)
		} else {
			scheduler.Start()
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Giftwall service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down giftwall service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis: %v", err)
		}
	}

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Giftwall service exited")
}
