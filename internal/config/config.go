package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers      string
	TestRequestsTopic string
	TestEventsTopic   string

	// API Configuration
	APIPort     string
	APIHost     string
	EventsPort  string
	CORSOrigins string

	// Encryption (refresh tokens at rest)
	EncryptionKey string

	// Google / YouTube OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Supabase image storage
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	// Test orchestration
	MaxApplyAttempts    int
	ConfirmPollSeconds  int
	ConfirmTimeoutSecs  int
	BackoffInitialMSecs int

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", "sqlite://thumbnailtester.db"),
		KafkaBrokers:        getEnv("KAFKA_BROKERS", "localhost:9092"),
		TestRequestsTopic:   getEnv("TEST_REQUESTS_TOPIC", "thumbnail-test-requests"),
		TestEventsTopic:     getEnv("TEST_EVENTS_TOPIC", "thumbnail-test-events"),
		APIPort:             getEnv("API_PORT", "8080"),
		APIHost:             getEnv("API_HOST", "0.0.0.0"),
		EventsPort:          getEnv("EVENTS_PORT", "8081"),
		CORSOrigins:         getEnv("CORS_ORIGINS", "*"),
		EncryptionKey:       getEnv("ENCRYPTION_KEY", "your-32-byte-encryption-key-here"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:   getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		SupabaseURL:         getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:  getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:      getEnv("SUPABASE_BUCKET", "thumbnails"),
		MaxApplyAttempts:    getEnvAsInt("MAX_APPLY_ATTEMPTS", 3),
		ConfirmPollSeconds:  getEnvAsInt("CONFIRM_POLL_SECONDS", 5),
		ConfirmTimeoutSecs:  getEnvAsInt("CONFIRM_TIMEOUT_SECONDS", 60),
		BackoffInitialMSecs: getEnvAsInt("BACKOFF_INITIAL_MS", 500),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
