// Package main
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"serptrack/packages/config"
	"serptrack/packages/db"
	"serptrack/packages/domain"
	"serptrack/packages/metrics"
	"serptrack/packages/retry"
	"serptrack/packages/serper"
	"serptrack/packages/track"
)

func setupLogger(cfg config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logDir := filepath.Dir(cfg.LogFile)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error(
			"Failed to create log directory", "path", logDir, "error", err,
		)
	}

	logRotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}

	multiWriter := io.MultiWriter(os.Stdout, logRotator)

	handler := slog.NewJSONHandler(multiWriter, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
			}
			return a
		},
	}).WithAttrs([]slog.Attr{slog.String("service", "serptrack")})

	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("Could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("--- Starting SERP rank tracker ---")

	storage, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		slog.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	var cache *serper.Cache
	if cfg.RedisAddr != "" {
		cache = serper.NewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		defer cache.Close()
		slog.Info("SERP response cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	client, err := serper.New(serper.Config{
		APIKey:      cfg.APIKey,
		Endpoint:    cfg.Endpoint,
		Region:      cfg.Region,
		Language:    cfg.Language,
		Autocorrect: cfg.Autocorrect,
		Timeout:     cfg.FetchTimeout,
	}, cache)
	if err != nil {
		slog.Error("Failed to build search client", "error", err)
		os.Exit(1)
	}

	runner := track.NewRunner(client, retry.Policy{
		MaxAttempts:      cfg.MaxAttempts,
		RateLimitBackoff: cfg.RateLimitBackoff,
		MaxBackoff:       cfg.MaxBackoff,
		TransientDelay:   cfg.TransientDelay,
	}, track.Options{
		Strategy:        domain.Strategy(cfg.Strategy),
		SequentialDelay: cfg.SequentialDelay,
		BatchSize:       cfg.BatchSize,
		BatchPause:      cfg.BatchPause,
		MaxInFlight:     cfg.MaxInFlight,
		JitterMax:       cfg.JitterMax,
	})

	if cfg.MetricsAddr != "" {
		go metrics.ExposeMetrics(cfg.MetricsAddr)
	}

	runCycle(ctx, cfg, storage, runner)

	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received. Exiting...")
			return
		case <-ticker.C:
			runCycle(ctx, cfg, storage, runner)
		}
	}
}

// lowSuccessRate is the threshold below which the run log advises switching
// to a more conservative concurrency profile.
const lowSuccessRate = 0.8

func runCycle(ctx context.Context, cfg config.Config, storage *db.Storage, runner *track.Runner) {
	started := time.Now()

	progress := func(completed, total int, keyword string) {
		slog.Debug("Run progress", "completed", completed, "total", total, "keyword", keyword)
	}

	result, err := runner.Run(ctx, track.Request{
		Keywords:       cfg.Keywords,
		MaxPages:       cfg.MaxPages,
		TrackedDomains: cfg.TrackedDomains,
		Progress:       progress,
	})
	if err != nil {
		slog.Error("Tracking run rejected", "error", err)
		return
	}

	metrics.RunsCompleted.Inc()
	metrics.RunSuccessRate.Set(result.SuccessRate)

	if result.SuccessRate < lowSuccessRate {
		slog.Warn("Low success rate; consider a more conservative strategy",
			"success_rate", result.SuccessRate, "strategy", cfg.Strategy)
	}

	runID, err := storage.SaveRun(ctx, db.RunMeta{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Strategy:     domain.Strategy(cfg.Strategy),
		SuccessRate:  result.SuccessRate,
		KeywordCount: len(cfg.Keywords),
	}, result.Rankings)
	if err != nil {
		slog.Error("Failed to persist run", "error", err)
		return
	}

	slog.Info("Run saved",
		"run_id", runID,
		"keywords", len(cfg.Keywords),
		"success_rate", result.SuccessRate,
		"duration", time.Since(started).String(),
	)
}
