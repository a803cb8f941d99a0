package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string // sqlite, postgres, mysql
	DatabasePath string // sqlite only
	DatabaseURL  string // postgres / mysql
	LogMode      string

	ChildTokenSecret string
	ChildTokenTTL    time.Duration

	RedisAddr       string
	CatalogCacheTTL time.Duration

	AWSRegion     string
	EmailFrom     string
	EmailFromName string
	AppBaseURL    string
	EmailDebug    bool

	PacingConfigPath string

	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from the environment (and a .env file when present)
// with sensible defaults
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("PORT", "8080"),
		DatabaseType:      getEnv("DB_TYPE", "sqlite"),
		DatabasePath:      getEnv("DB_PATH", "./zonuko.db"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		LogMode:           getEnv("LOG_MODE", "dev"),
		ChildTokenSecret:  getEnv("CHILD_TOKEN_SECRET", "dev-only-child-token-secret-change-me"),
		ChildTokenTTL:     getEnvDuration("CHILD_TOKEN_TTL", 12*time.Hour),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		CatalogCacheTTL:   getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		AWSRegion:         getEnv("AWS_REGION", ""),
		EmailFrom:         getEnv("EMAIL_FROM", ""),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Zonuko"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
		EmailDebug:        getEnvBool("EMAIL_DEBUG", false),
		PacingConfigPath:  getEnv("PACING_CONFIG", ""),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
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
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
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

// getEnvDuration accepts Go duration strings ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
