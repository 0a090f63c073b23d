// Package config loads process-level settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the player binaries.
type Config struct {
	// Transport
	Debounce         time.Duration
	PositionInterval time.Duration
	ResampleQuality  string

	// Export
	FFmpegPath string
	Dither     string
	Shaping    string

	LogLevel string

	// Suggestion service
	SuggestURL     string
	SuggestAPIKey  string
	SuggestModel   string
	SuggestTimeout time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		Debounce:         time.Duration(envInt("FXPLAY_DEBOUNCE_MS", 150)) * time.Millisecond,
		PositionInterval: time.Duration(envInt("FXPLAY_POSITION_INTERVAL_MS", 100)) * time.Millisecond,
		ResampleQuality:  envStr("FXPLAY_RESAMPLE_QUALITY", "balanced"),

		FFmpegPath: envStr("FXPLAY_FFMPEG", "ffmpeg"),
		Dither:     envStr("FXPLAY_DITHER", "tpdf"),
		Shaping:    envStr("FXPLAY_SHAPING", "off"),

		LogLevel: envStr("FXPLAY_LOG_LEVEL", "info"),

		SuggestURL:     envStr("FXPLAY_SUGGEST_URL", ""),
		SuggestAPIKey:  envStr("FXPLAY_SUGGEST_KEY", ""),
		SuggestModel:   envStr("FXPLAY_SUGGEST_MODEL", ""),
		SuggestTimeout: envDuration("FXPLAY_SUGGEST_TIMEOUT", 30*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go duration syntax ("45s") or a bare number of
// seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
