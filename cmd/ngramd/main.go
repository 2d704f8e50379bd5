// Command ngramd serves the n-gram frequency query API.
//
// It connects the frequency store, loads the yearly totals, and answers
// GET /ngram/query with one frequency series per expanded term. Query
// statistics are kept in memory and, when analytics is enabled, also
// published to Kafka.
//
// Usage:
//
//	go run ./cmd/ngramd [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/executor"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/handler"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/store"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/totals"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/resilience"
	pkgredis "github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/redis"
)

const limiterSweepInterval = 5 * time.Minute

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := run(cfg); err != nil {
		slog.Error("ngram service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("ngram service stopped")
}

func run(cfg *config.Config) error {
	slog.Info("starting ngram service",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"totals", cfg.Totals.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	var sqlStore *store.SQLStore
	err := resilience.Retry(ctx, "open frequency store", cfg.Store.ConnectRetry, func(context.Context) error {
		var err error
		sqlStore, err = store.Open(cfg)
		return err
	})
	if err != nil {
		return err
	}
	defer sqlStore.Close()

	breakerCfg := cfg.Store.Breaker
	breakerCfg.IsFailure = store.IsStoreFailure
	breakerCfg.OnStateChange = func(_, to resilience.State) {
		m.StoreCircuitState.Set(float64(to))
	}
	st := store.NewGuarded(sqlStore, resilience.NewCircuitBreaker("frequency-store", breakerCfg))

	tot, err := loadTotals(ctx, cfg)
	if err != nil {
		return err
	}
	m.TotalsSeries.Set(float64(tot.Len()))
	slog.Info("yearly totals loaded", "series", tot.Len(), "source", cfg.Totals.Source)

	aggregator := analytics.NewAggregator(cfg.Analytics.TopTerms)
	trackers := analytics.Trackers{aggregator}
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.EventKey)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics, m)
		collector.Start(ctx)
		defer collector.Close()
		trackers = append(trackers, collector)
	}

	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(sqlStore.Ping))
	checker.Register("totals", func(context.Context) health.ComponentHealth {
		if tot.Len() == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no totals loaded"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d series", tot.Len())}
	})

	exec := executor.New(st, tot, executor.Options{
		Limits:   cfg.Query,
		Metrics:  m,
		LogSpans: cfg.Tracing.Enabled,
	})

	rt := routes{
		query:       handler.New(exec, trackers, m),
		analytics:   analytics.NewHandler(aggregator),
		checker:     checker,
		metrics:     m,
		corsOrigins: cfg.Server.CORSOrigins,
		timeout:     cfg.Server.RequestTimeout,
	}
	if cfg.Metrics.Enabled && (cfg.Metrics.Port == 0 || cfg.Metrics.Port == cfg.Server.Port) {
		rt.metricsHandler = metrics.Handler()
	}
	if cfg.Server.RateLimit.RPS > 0 {
		rt.limiter = middleware.NewClientLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newRouter(rt),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("ngram service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if rt.limiter != nil {
		g.Go(func() error {
			rt.limiter.Run(gctx, limiterSweepInterval)
			return nil
		})
	}
	if cfg.Metrics.Enabled && rt.metricsHandler == nil {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return shutdownMetrics(shutdownCtx)
		})
	}
	return g.Wait()
}

func loadTotals(ctx context.Context, cfg *config.Config) (*totals.YearlyTotals, error) {
	if cfg.Totals.Source != "redis" {
		return totals.LoadFile(cfg.Totals.Path)
	}

	var tot *totals.YearlyTotals
	err := resilience.Retry(ctx, "load totals from redis", cfg.Store.ConnectRetry, func(ctx context.Context) error {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connecting to totals redis: %w", err)
		}
		defer client.Close()

		loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tot, err = totals.LoadRedis(loadCtx, client, cfg.Totals.KeyPrefix)
		return err
	})
	return tot, err
}
