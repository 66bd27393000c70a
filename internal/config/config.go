// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all service settings.
//
// IMPORTANT: When changing defaults, only modify this file. All other parts
// of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds the HTTP/WebSocket service settings.
type ServerConfig struct {
	ListenAddr    string // Address the API binds to
	CORSOrigins   []string
	RatePerSecond float64 // Per-IP request budget
	RateBurst     int
	DebugAddr     string // pprof/metrics; localhost only
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		ListenAddr:    ":8080",
		CORSOrigins:   []string{"http://localhost:3000"},
		RatePerSecond: 10,
		RateBurst:     20,
		DebugAddr:     "127.0.0.1:6060",
	}
}

// ServerFromEnv returns server configuration with environment overrides.
// Environment variables take precedence over defaults.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if addr := os.Getenv("MATCHDAY_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if addr := os.Getenv("MATCHDAY_DEBUG_ADDR"); addr != "" {
		cfg.DebugAddr = addr
	}
	if rps := getEnvFloat("MATCHDAY_RATE_PER_SECOND", 0); rps > 0 {
		cfg.RatePerSecond = rps
	}
	if burst := getEnvInt("MATCHDAY_RATE_BURST", 0); burst > 0 {
		cfg.RateBurst = burst
	}
	return cfg
}

// =============================================================================
// SIMULATION SERVICE LIMITS
// =============================================================================

// SimLimits bounds concurrent simulation work. One match is one goroutine;
// these caps keep a burst of requests from exhausting the box.
type SimLimits struct {
	MaxConcurrentMatches int
	MaxLiveSessions      int
	MaxBatchSize         int
}

// DefaultSimLimits returns production-safe defaults.
func DefaultSimLimits() SimLimits {
	return SimLimits{
		MaxConcurrentMatches: 32,
		MaxLiveSessions:      64,
		MaxBatchSize:         1000,
	}
}

// SimLimitsFromEnv returns limits with environment overrides.
func SimLimitsFromEnv() SimLimits {
	cfg := DefaultSimLimits()
	if v := getEnvInt("MATCHDAY_MAX_MATCHES", 0); v > 0 {
		cfg.MaxConcurrentMatches = v
	}
	if v := getEnvInt("MATCHDAY_MAX_LIVE", 0); v > 0 {
		cfg.MaxLiveSessions = v
	}
	if v := getEnvInt("MATCHDAY_MAX_BATCH", 0); v > 0 {
		cfg.MaxBatchSize = v
	}
	return cfg
}

// =============================================================================
// STORAGE
// =============================================================================

// StorageConfig locates the match archive.
type StorageConfig struct {
	ArchivePath string
}

// DefaultStorage returns the default storage configuration.
func DefaultStorage() StorageConfig {
	return StorageConfig{ArchivePath: "matchday.db"}
}

// StorageFromEnv returns storage configuration with environment overrides.
func StorageFromEnv() StorageConfig {
	cfg := DefaultStorage()
	if p := os.Getenv("MATCHDAY_ARCHIVE_PATH"); p != "" {
		cfg.ArchivePath = p
	}
	return cfg
}

// =============================================================================
// HELPERS
// =============================================================================

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
