package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings read from the environment
type Config struct {
	Port         string
	LogLevel     string
	APIJWTSecret string

	ConfigPath  string
	DatabaseURL string
	TempDir     string

	UploadURL         string
	UploadMaxAttempts int
	UploadRetryDelay  time.Duration
	UploadTimeout     time.Duration
	UploadJWTSecret   string

	FetchServiceURL string
	FetchTimeout    time.Duration

	IMAPDialTimeout    time.Duration
	IMAPCommandTimeout time.Duration
	BatchPause         time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		APIJWTSecret: getEnv("API_JWT_SECRET", ""),

		ConfigPath:  getEnv("CONFIG_PATH", "config.json"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TempDir:     getEnv("TEMP_DIR", ""),

		UploadURL:         getEnv("UPLOAD_API_URL", ""),
		UploadMaxAttempts: getInt("UPLOAD_MAX_ATTEMPTS", 3),
		UploadRetryDelay:  getDuration("UPLOAD_RETRY_DELAY", 5*time.Second),
		UploadTimeout:     getDuration("UPLOAD_TIMEOUT", 60*time.Second),
		UploadJWTSecret:   getEnv("UPLOAD_JWT_SECRET", ""),

		FetchServiceURL: getEnv("FETCH_SERVICE_URL", ""),
		FetchTimeout:    getDuration("FETCH_TIMEOUT", 90*time.Second),

		IMAPDialTimeout:    getDuration("IMAP_DIAL_TIMEOUT", 30*time.Second),
		IMAPCommandTimeout: getDuration("IMAP_COMMAND_TIMEOUT", 2*time.Minute),
		BatchPause:         getDuration("BATCH_PAUSE", time.Second),
	}
}

// Validate reports settings the process cannot start without
func (c *Config) Validate() error {
	if c.UploadURL == "" {
		return errors.New("UPLOAD_API_URL is required")
	}
	if c.UploadMaxAttempts < 1 {
		return errors.New("UPLOAD_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDuration accepts Go durations ("90s") or plain seconds ("90")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
