package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Redis configuration
	RedisURL    string `json:"redis_url"`
	RedisPrefix string `json:"redis_prefix"`

	// Postgres configuration
	DatabaseURL string `json:"database_url"`

	// AI configuration
	AIApiURL      string        `json:"ai_api_url"`
	AIApiKey      string        `json:"ai_api_key"`
	AIModel       string        `json:"ai_model"`
	AITimeout     time.Duration `json:"ai_timeout"`
	AIMaxRetries  int           `json:"ai_max_retries"`
	AIMaxTokens   int           `json:"ai_max_tokens"`
	AIMinInterval time.Duration `json:"ai_min_interval"`

	// Scheduler configuration
	Timezone          string        `json:"timezone"`
	RunHour           int           `json:"run_hour"`
	RunMinute         int           `json:"run_minute"`
	ProcessingBuffer  time.Duration `json:"processing_buffer"`
	SchedulerCooldown time.Duration `json:"scheduler_cooldown"`

	// Enrichment pacing, background path
	AutoAnalysisDelay time.Duration `json:"auto_analysis_delay"`
	AutoDetailDelay   time.Duration `json:"auto_detail_delay"`
	AutoArticleDelay  time.Duration `json:"auto_article_delay"`

	// Enrichment pacing, manual path
	ManualAnalysisDelay time.Duration `json:"manual_analysis_delay"`
	ManualDetailDelay   time.Duration `json:"manual_detail_delay"`
	ManualArticleDelay  time.Duration `json:"manual_article_delay"`
	ManualBatchSize     int           `json:"manual_batch_size"`
	ManualBatchDelay    time.Duration `json:"manual_batch_delay"`

	// Selection
	MaxSimilar int    `json:"max_similar"`
	MaxResults int    `json:"max_results"`
	FeedsPath  string `json:"feeds_path"`

	// API throttling
	ThrottleWindow time.Duration `json:"throttle_window"`

	// CloudFlare R2 configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"r2_access_key"`
	R2SecretKey string `json:"r2_secret_key"`
	R2Bucket    string `json:"r2_bucket"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// Load loads configuration from environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix: getEnv("REDIS_PREFIX", "causality:"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/causality?sslmode=disable"),

		AIApiURL:      getEnv("AI_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		AIApiKey:      getEnv("AI_API_KEY", ""),
		AIModel:       getEnv("AI_MODEL", "llama-3.1-8b-instant"),
		AITimeout:     getEnvAsDuration("AI_TIMEOUT", 45*time.Second),
		AIMaxRetries:  getEnvAsInt("AI_MAX_RETRIES", 3),
		AIMaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 500),
		AIMinInterval: getEnvAsDuration("AI_MIN_INTERVAL", 1500*time.Millisecond),

		Timezone:          getEnv("TIMEZONE", "Europe/Madrid"),
		RunHour:           getEnvAsInt("RUN_HOUR", 12),
		RunMinute:         getEnvAsInt("RUN_MINUTE", 0),
		ProcessingBuffer:  getEnvAsDuration("PROCESSING_BUFFER", 10*time.Minute),
		SchedulerCooldown: getEnvAsDuration("SCHEDULER_COOLDOWN", time.Hour),

		AutoAnalysisDelay: getEnvAsDuration("AUTO_ANALYSIS_DELAY", 2500*time.Millisecond),
		AutoDetailDelay:   getEnvAsDuration("AUTO_DETAIL_DELAY", 2000*time.Millisecond),
		AutoArticleDelay:  getEnvAsDuration("AUTO_ARTICLE_DELAY", 3000*time.Millisecond),

		ManualAnalysisDelay: getEnvAsDuration("MANUAL_ANALYSIS_DELAY", 4000*time.Millisecond),
		ManualDetailDelay:   getEnvAsDuration("MANUAL_DETAIL_DELAY", 3000*time.Millisecond),
		ManualArticleDelay:  getEnvAsDuration("MANUAL_ARTICLE_DELAY", 3000*time.Millisecond),
		ManualBatchSize:     getEnvAsInt("MANUAL_BATCH_SIZE", 2),
		ManualBatchDelay:    getEnvAsDuration("MANUAL_BATCH_DELAY", 10*time.Second),

		MaxSimilar: getEnvAsInt("MAX_SIMILAR_EVENTS", 3),
		MaxResults: getEnvAsInt("MAX_RESULTS", 5),
		FeedsPath:  getEnv("FEEDS_PATH", "./feeds.yaml"),

		ThrottleWindow: getEnvAsDuration("THROTTLE_WINDOW", 30*time.Minute),

		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// DevMode reports whether the app runs with development-only surfaces open.
func (c *Config) DevMode() bool {
	return c.Env != "production"
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
