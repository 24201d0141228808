// Package config loads service tunables from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime tunable for the web service. The Gemini API key
// is handled separately by the auth package.
type Config struct {
	Port int

	AnalysisTimeout time.Duration
	RefineTimeout   time.Duration

	MaxImageWidth int
	JPEGQuality   int

	RenderBaseURL string
	SessionTTL    time.Duration
}

// Load reads configuration from environment variables, applying defaults and
// clamping invalid values back to sane ones.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnvInt("POSELENS_PORT", 8080),
		AnalysisTimeout: time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 15)) * time.Second,
		RefineTimeout:   time.Duration(getEnvInt("REFINE_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxImageWidth:   getEnvInt("MAX_IMAGE_WIDTH", 800),
		JPEGQuality:     getEnvInt("JPEG_QUALITY", 80),
		RenderBaseURL:   strings.TrimRight(getEnv("RENDER_BASE_URL", "https://image.pollinations.ai"), "/"),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_SECONDS", 600)) * time.Second,
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("POSELENS_PORT out of range: %d", cfg.Port)
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 15 * time.Second
	}
	if cfg.RefineTimeout <= 0 {
		cfg.RefineTimeout = 30 * time.Second
	}
	if cfg.MaxImageWidth < 1 {
		cfg.MaxImageWidth = 800
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 80
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 10 * time.Minute
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
