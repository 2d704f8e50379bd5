// Command totalsctl publishes a yearly totals file to Redis in the layout
// ngramd reads when totals.source is redis, or checks what Redis holds.
//
// Usage:
//
//	go run ./cmd/totalsctl [-config configs/development.yaml] -push totals.json.gz
//	go run ./cmd/totalsctl [-config configs/development.yaml] -check
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/totals"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	push := flag.String("push", "", "totals file (.json or .json.gz) to publish")
	check := flag.Bool("check", false, "load the totals back from redis and print a summary")
	flag.Parse()

	if *push == "" && !*check {
		fmt.Fprintln(os.Stderr, "one of -push or -check is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if *push != "" {
		if err := pushFile(ctx, client, cfg.Totals.KeyPrefix, *push); err != nil {
			slog.Error("push failed", "file", *push, "error", err)
			os.Exit(1)
		}
	}
	if *check {
		t, err := totals.LoadRedis(ctx, client, cfg.Totals.KeyPrefix)
		if err != nil {
			slog.Error("check failed", "error", err)
			os.Exit(1)
		}
		printSummary(t)
	}
}

func pushFile(ctx context.Context, sink totals.HashSink, prefix, path string) error {
	t, err := totals.LoadFile(path)
	if err != nil {
		return err
	}
	if err := totals.StoreRedis(ctx, sink, prefix, t); err != nil {
		return err
	}
	slog.Info("totals published", "file", path, "prefix", prefix, "series", t.Len())
	return nil
}

func printSummary(t *totals.YearlyTotals) {
	fmt.Printf("%d series\n", t.Len())
	for _, k := range t.Keys() {
		years := t.Sum([]totals.Key{k})
		fmt.Printf("  %-10s %d years\n", k, len(years))
	}
}
