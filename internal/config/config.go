package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string // sqlite (default), postgres, mysql
	DatabasePath    string // sqlite only
	DatabaseURL     string // postgres/mysql
	MigrationsPath  string
	SessionDuration time.Duration
	LogLevel        string

	// Email (Amazon SES); service is disabled when SESFromEmail is empty
	SESRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// External activity generation service
	GenerationURL     string
	GenerationSecret  string
	GenerationTimeout time.Duration

	// Google OAuth sign-in; disabled when the client ID is empty
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string
}

// Load reads configuration from the environment with sensible defaults. A
// .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./familyplan.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration: getDuration("SESSION_DURATION", 24*time.Hour),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		SESRegion:    getEnv("SES_REGION", "eu-west-1"),
		SESFromEmail: os.Getenv("SES_FROM_EMAIL"),
		SESFromName:  getEnv("SES_FROM_NAME", "FamilyPlan"),
		AppBaseURL:   getEnv("APP_BASE_URL", "http://localhost:8080"),

		GenerationURL:     os.Getenv("GENERATION_SERVICE_URL"),
		GenerationSecret:  os.Getenv("GENERATION_SERVICE_SECRET"),
		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 60*time.Second),

		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration reads a duration environment variable or returns a default
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
