package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort string
	GinMode    string
	LogLevel   string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret string

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string
	S3BackupBucketName string

	// Moderation provider
	ModerationProvider   string
	ModerationURL        string
	ModerationAPIKey     string
	ModerationTimeoutSec int

	// Scheduled sweeps
	CronSecret        string
	CronTrustedHeader string
	CronInProcess     bool

	// Calendar-day arithmetic for the approval lock window
	EventTimezone string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	config := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "giftwall"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "giftwall-media"),
		S3BackupBucketName: getEnv("S3_BACKUP_BUCKET_NAME", ""),

		ModerationProvider:   getEnv("MODERATION_PROVIDER", ""),
		ModerationURL:        getEnv("MODERATION_URL", ""),
		ModerationAPIKey:     getEnv("MODERATION_API_KEY", ""),
		ModerationTimeoutSec: getEnvInt("MODERATION_TIMEOUT_SEC", 5),

		CronSecret:        getEnv("CRON_SECRET", ""),
		CronTrustedHeader: getEnv("CRON_TRUSTED_HEADER", "X-Appengine-Cron"),
		CronInProcess:     getEnvBool("CRON_IN_PROCESS", false),

		EventTimezone: getEnv("EVENT_TIMEZONE", "Asia/Jerusalem"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
