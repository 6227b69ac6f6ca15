// Command prune deletes runs older than the retention window.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"serptrack/packages/config"
	"serptrack/packages/db"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("Could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("--- Starting retention sweep ---", "retention_days", cfg.RetentionDays)

	storage, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
	removed, err := storage.PruneRuns(ctx, cutoff)
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Retention sweep finished", "runs_removed", removed, "cutoff", cutoff.Format(time.RFC3339))
}
