package main

import (
	"giftwall/internal/app"
	"giftwall/internal/moderation"
	"giftwall/pkg/cache"
	"giftwall/pkg/config"
	"giftwall/pkg/database"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"
	"giftwall/pkg/s3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.Post{},
		&models.MediaItem{},
		&models.EventSettings{},
		&models.ContentRule{},
		&models.Reaction{},
		&models.Admin{},
	); err != nil {
		log.Error("Failed to migrate database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	s3Client, err := s3.NewClient(cfg)
	if err != nil {
		log.Error("Failed to initialize S3 client: %v", err)
		panic(err)
	}

	provider := moderation.FromConfig(cfg)
	if provider == nil {
		log.Warn("No moderation provider configured, submissions will not be screened")
	}

	app.Run(cfg, log, db, redisClient, s3Client, provider)
}
