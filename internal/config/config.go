// Package config reads process configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings the cache service reads at startup.
type Config struct {
	// Cache
	CacheEnabled  bool          // global pass-through switch (false = every read misses)
	CacheShards   int           // 0 = auto
	CacheCapacity int           // 0 = unbounded
	SweepInterval time.Duration // 0 = cache default, < 0 = lazy expiry only
	// Observability
	LogLevel          string  // debug, info, warn, error
	MetricsAddr       string  // listen address for /metrics and admin routes
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OTLP HTTP collector host:port
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // empty disables Sentry
	SentryEnvironment string
	SentryRelease     string
}

// Load reads the environment. Call godotenv.Load first to honour a .env file.
func Load() *Config {
	c := &Config{
		CacheEnabled:      GetEnvAsBool("CACHE_ENABLED", true),
		CacheShards:       GetEnvAsInt("CACHE_SHARDS", 0),
		CacheCapacity:     GetEnvAsInt("CACHE_CAPACITY", 0),
		SweepInterval:     time.Duration(GetEnvAsInt("CACHE_SWEEP_INTERVAL_MS", 30_000)) * time.Millisecond,
		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		MetricsAddr:       strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		OTELEnabled:       GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":8080"
	}
	if c.OTELEndpoint == "" {
		c.OTELEndpoint = "localhost:4318"
	}
	if c.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			c.SentryEnvironment = env
		} else {
			c.SentryEnvironment = "development"
		}
	}
	return c
}

// GetEnvAsBool parses a boolean environment variable with a default.
func GetEnvAsBool(key string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}

// GetEnvAsInt retrieves an environment variable as an integer with a default fallback.
func GetEnvAsInt(name string, defaultVal int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return defaultVal
}

// GetEnvAsFloat retrieves an environment variable as a float64 with a default fallback.
func GetEnvAsFloat(name string, defaultVal float64) float64 {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return defaultVal
}
