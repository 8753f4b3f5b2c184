package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ArchiveNone  = ""
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

type Config struct {
	Port        string
	LogLevel    string
	FrontendURL []string

	// Google Cloud
	GoogleCloudProjectID  string
	DocumentAILocation    string
	DocumentAIProcessorID string
	TranslationEnabled    bool
	TranslateAPIKey       string

	// Gemini
	GeminiAPIKey string
	GeminiModels []string

	// Pipeline
	ProcessingTimeout time.Duration

	// Rate limiting
	RateLimitMax    int
	RateLimitWindow time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// History
	DatabasePath string

	// Upload archive
	ArchiveBackend string
	ArchiveDir     string
	ArchiveTTL     time.Duration

	// S3
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool
}

func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", "3001"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		FrontendURL:           getEnvList("FRONTEND_URL", []string{"*"}),
		GoogleCloudProjectID:  getEnv("GOOGLE_CLOUD_PROJECT_ID", ""),
		DocumentAILocation:    getEnv("DOCUMENT_AI_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", "default"),
		TranslateAPIKey:       getEnv("GOOGLE_TRANSLATE_API_KEY", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModels:          getEnvList("GEMINI_MODELS", []string{"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.0-flash"}),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		DatabasePath:          getEnv("DATABASE_PATH", "data/analyses.db"),
		ArchiveBackend:        strings.ToLower(getEnv("ARCHIVE_BACKEND", ArchiveNone)),
		ArchiveDir:            getEnv("ARCHIVE_DIR", "temp"),
		S3Endpoint:            getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKeyID:         getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:     getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:          getEnv("S3_BUCKET_NAME", "documents"),
		S3UseSSL:              getEnv("S3_USE_SSL", "false") == "true",
	}

	var err error
	if cfg.TranslationEnabled, err = getEnvBool("TRANSLATION_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.ProcessingTimeout, err = getEnvDuration("PROCESSING_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getEnvInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.ArchiveTTL, err = getEnvDuration("ARCHIVE_TTL", time.Hour); err != nil {
		return nil, err
	}

	switch cfg.ArchiveBackend {
	case ArchiveNone, ArchiveLocal, ArchiveS3:
	default:
		return nil, fmt.Errorf("ARCHIVE_BACKEND must be one of \"\", %q, %q; got %q", ArchiveLocal, ArchiveS3, cfg.ArchiveBackend)
	}

	return cfg, nil
}

// OCREnabled reports whether Document AI has enough configuration to be called.
func (c *Config) OCREnabled() bool {
	return c.GoogleCloudProjectID != "" && c.DocumentAIProcessorID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
