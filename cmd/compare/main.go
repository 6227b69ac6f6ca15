// Command compare prints a competition report for two tracked sites, derived
// on demand from the most recent stored run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"serptrack/packages/config"
	"serptrack/packages/db"
	"serptrack/packages/domain"
	"serptrack/packages/rank"
)

func main() {
	siteA := flag.String("a", "", "first tracked site (original spelling, as stored)")
	siteB := flag.String("b", "", "second tracked site")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *siteA == "" || *siteB == "" {
		fmt.Fprintln(os.Stderr, "usage: compare -a <site> -b <site>")
		os.Exit(2)
	}

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

	storage, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	runID, rows, err := storage.LatestRankings(ctx)
	if err != nil {
		slog.Error("Failed to load latest rankings", "error", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("no stored runs yet")
		return
	}

	cmp := rank.Compare(rows, *siteA, *siteB)

	fmt.Printf("run %d: %s vs %s (%d keywords)\n\n", runID, *siteA, *siteB, len(rows))
	printBucket("winning", cmp.Winning)
	printBucket("losing", cmp.Losing)
	printBucket("tied", cmp.Tied)
	printBucket("only "+*siteA, cmp.OnlyA)
	printBucket("only "+*siteB, cmp.OnlyB)
	printBucket("neither", cmp.Neither)
}

func printBucket(name string, bucket []domain.KeywordRanks) {
	fmt.Printf("%s (%d):\n", name, len(bucket))
	for _, kr := range bucket {
		fmt.Printf("  %-30s a=%s b=%s\n", kr.Keyword, fmtRank(kr.RankA), fmtRank(kr.RankB))
	}
	fmt.Println()
}

func fmtRank(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *r)
}
