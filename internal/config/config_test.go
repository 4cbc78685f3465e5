package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from the package directory, where no .env exists.
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "AUTHENTICATION_KEY", "OPENROUTER_MODEL",
		"TRANSLATE_CHUNK_SIZE", "FREE_PAYLOAD_LIMIT", "RATE_AUTH_PER_SECOND",
		"RATE_ANON_PER_MINUTE", "NEWS_CACHE_TTL", "WORKER_COUNT", "JOB_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("expected port 8000, got %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.OpenRouterModel != "deepseek/deepseek-chat:free" {
		t.Errorf("unexpected model %q", cfg.OpenRouterModel)
	}
	if cfg.TranslateChunkSize != 50000 {
		t.Errorf("expected chunk size 50000, got %d", cfg.TranslateChunkSize)
	}
	if cfg.FreePayloadLimit != 350 {
		t.Errorf("expected free payload limit 350, got %d", cfg.FreePayloadLimit)
	}
	if cfg.RateAuthPerSecond != 10 || cfg.RateAnonPerMinute != 3 {
		t.Errorf("expected rates 10/s and 3/min, got %d and %d", cfg.RateAuthPerSecond, cfg.RateAnonPerMinute)
	}
	if cfg.NewsCacheTTL != 15*time.Minute {
		t.Errorf("expected news ttl 15m, got %v", cfg.NewsCacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTHENTICATION_KEY", "tok")
	t.Setenv("TRANSLATE_CHUNK_SIZE", "1234")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Port != "9001" {
		t.Errorf("expected port 9001, got %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if cfg.AuthenticationKey != "tok" {
		t.Errorf("expected auth key tok, got %q", cfg.AuthenticationKey)
	}
	if cfg.TranslateChunkSize != 1234 {
		t.Errorf("expected chunk size 1234, got %d", cfg.TranslateChunkSize)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected non-positive worker count to fall back to 2, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != 90*time.Second {
		t.Errorf("expected job ttl 90s, got %v", cfg.JobTTL)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("TRANSLATE_CONCURRENCY", "many")
	t.Setenv("NEWS_CACHE_TTL", "soon")

	cfg := Load()
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
	if cfg.TranslateConcurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.TranslateConcurrency)
	}
	if cfg.NewsCacheTTL != 15*time.Minute {
		t.Errorf("expected news ttl 15m, got %v", cfg.NewsCacheTTL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8000", FreePayloadLimit: 350, RateAuthPerSecond: 10, RateAnonPerMinute: 3}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	bad := []Config{
		{Port: "", FreePayloadLimit: 350, RateAuthPerSecond: 10, RateAnonPerMinute: 3},
		{Port: "http", FreePayloadLimit: 350, RateAuthPerSecond: 10, RateAnonPerMinute: 3},
		{Port: "8000", FreePayloadLimit: 0, RateAuthPerSecond: 10, RateAnonPerMinute: 3},
		{Port: "8000", FreePayloadLimit: 350, RateAuthPerSecond: 0, RateAnonPerMinute: 3},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
