package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	// Auth. Requests carrying this bearer token get the authenticated tier.
	AuthenticationKey string

	// Translation provider
	OpenRouterAPIKey     string
	OpenRouterBaseURL    string
	OpenRouterModel      string
	TranslateChunkSize   int
	TranslateConcurrency int

	// News provider
	NewsAPIKey     string
	NewsAPIBaseURL string
	NewsCacheTTL   time.Duration

	// Anonymous tier
	FreePayloadLimit  int64
	RateAuthPerSecond int
	RateAnonPerMinute int

	// Romanization
	RomajiExceptionsFile string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads .env when present, then the environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:     envOr("PORT", "8000"),
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),

		AuthenticationKey: os.Getenv("AUTHENTICATION_KEY"),

		OpenRouterAPIKey:     os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL:    envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:      envOr("OPENROUTER_MODEL", "deepseek/deepseek-chat:free"),
		TranslateChunkSize:   envInt("TRANSLATE_CHUNK_SIZE", 50000),
		TranslateConcurrency: envInt("TRANSLATE_CONCURRENCY", 4),

		NewsAPIKey:     os.Getenv("NEWSAPI_KEY"),
		NewsAPIBaseURL: envOr("NEWSAPI_BASE_URL", "https://api.worldnewsapi.com"),
		NewsCacheTTL:   envDuration("NEWS_CACHE_TTL", 15*time.Minute),

		FreePayloadLimit:  envInt64("FREE_PAYLOAD_LIMIT", 350),
		RateAuthPerSecond: envInt("RATE_AUTH_PER_SECOND", 10),
		RateAnonPerMinute: envInt("RATE_ANON_PER_MINUTE", 3),

		RomajiExceptionsFile: os.Getenv("ROMAJI_EXCEPTIONS_FILE"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.TranslateChunkSize <= 0 {
		cfg.TranslateChunkSize = 50000
	}
	if cfg.TranslateConcurrency <= 0 {
		cfg.TranslateConcurrency = 4
	}
	if cfg.NewsCacheTTL <= 0 {
		cfg.NewsCacheTTL = 15 * time.Minute
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate rejects settings the server cannot run with. Provider keys are
// optional; the routes that need them answer 503 instead.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %q", c.Port)
	}
	if c.FreePayloadLimit <= 0 {
		return fmt.Errorf("FREE_PAYLOAD_LIMIT must be positive")
	}
	if c.RateAuthPerSecond <= 0 || c.RateAnonPerMinute <= 0 {
		return fmt.Errorf("RATE_AUTH_PER_SECOND and RATE_ANON_PER_MINUTE must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
