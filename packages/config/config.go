// Package config
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIKey      string
	DatabaseURL string
	Endpoint    string

	Keywords       []string
	TrackedDomains []string
	MaxPages       int
	Region         string
	Language       string
	Autocorrect    bool

	Strategy        string
	SequentialDelay time.Duration
	BatchSize       int
	BatchPause      time.Duration
	MaxInFlight     int
	JitterMax       time.Duration

	MaxAttempts      int
	RateLimitBackoff time.Duration
	MaxBackoff       time.Duration
	TransientDelay   time.Duration
	FetchTimeout     time.Duration

	RunInterval   time.Duration
	RetentionDays int
	MetricsAddr   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogFile  string
	LogLevel string
}

func Load() (Config, error) {
	cfg := Config{}
	var missingVars []string

	cfg.APIKey = getEnv("SERPER_API_KEY", "")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")

	if cfg.APIKey == "" {
		missingVars = append(missingVars, "SERPER_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		missingVars = append(missingVars, "DATABASE_URL")
	}
	if len(missingVars) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	cfg.Endpoint = getEnv("SERPER_ENDPOINT", "")
	cfg.Keywords = splitList(getEnv("KEYWORDS", ""))
	cfg.TrackedDomains = splitList(getEnv("TRACKED_DOMAINS", ""))

	var err error
	cfg.MaxPages, err = strconv.Atoi(getEnv("MAX_PAGES", "5"))
	if err != nil {
		slog.Warn("Invalid MAX_PAGES", "value", getEnv("MAX_PAGES", "5"), "error", err)
		cfg.MaxPages = 5
	}
	cfg.Region = getEnv("REGION", "hk")
	cfg.Language = getEnv("LANGUAGE", "zh-tw")
	cfg.Autocorrect, _ = strconv.ParseBool(getEnv("AUTOCORRECT", "true"))

	cfg.Strategy = strings.ToLower(getEnv("STRATEGY", "sequential"))
	cfg.SequentialDelay, _ = time.ParseDuration(getEnv("SEQUENTIAL_DELAY", "300ms"))
	cfg.BatchSize, _ = strconv.Atoi(getEnv("BATCH_SIZE", "5"))
	cfg.BatchPause, _ = time.ParseDuration(getEnv("BATCH_PAUSE", "1s"))
	cfg.MaxInFlight, _ = strconv.Atoi(getEnv("MAX_IN_FLIGHT", "10"))
	cfg.JitterMax, _ = time.ParseDuration(getEnv("JITTER_MAX", "500ms"))

	cfg.MaxAttempts, _ = strconv.Atoi(getEnv("MAX_ATTEMPTS", "3"))
	cfg.RateLimitBackoff, _ = time.ParseDuration(getEnv("RATE_LIMIT_BACKOFF", "2s"))
	cfg.MaxBackoff, _ = time.ParseDuration(getEnv("MAX_BACKOFF", "30s"))
	cfg.TransientDelay, _ = time.ParseDuration(getEnv("TRANSIENT_DELAY", "1s"))
	cfg.FetchTimeout, _ = time.ParseDuration(getEnv("FETCH_TIMEOUT", "15s"))

	cfg.RunInterval, _ = time.ParseDuration(getEnv("RUN_INTERVAL", "6h"))
	cfg.RetentionDays, _ = strconv.Atoi(getEnv("RETENTION_DAYS", "90"))
	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, _ = strconv.Atoi(getEnv("REDIS_DB", "0"))
	cfg.CacheTTL, _ = time.ParseDuration(getEnv("CACHE_TTL", "1h"))

	cfg.LogFile = getEnv("LOG_FILE", "logs/serptrack.log")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
