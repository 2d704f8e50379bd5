// Package clickhouse opens the clickhouse-go connection pool backing the
// ClickHouse frequency store through database/sql.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
)

// Client owns the pool.
type Client struct {
	DB  *sql.DB
	cfg config.ClickHouseConfig
}

// New opens the pool and verifies it with a ping.
func New(cfg config.ClickHouseConfig) (*Client, error) {
	db := clickhouse.OpenDB(Options(cfg))
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging clickhouse %v: %w", cfg.Addr, err)
	}
	slog.Default().With("component", "clickhouse").Info("connected",
		"addr", cfg.Addr,
		"database", cfg.Database,
	)
	return &Client{DB: db, cfg: cfg}, nil
}

// Options translates cfg into driver options.
func Options(cfg config.ClickHouseConfig) *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
		ClientInfo:  clientInfo(),
	}
	if cfg.Compression {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}
	return opts
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// clientInfo tags queries in system.query_log with this process.
func clientInfo() clickhouse.ClientInfo {
	host, _ := os.Hostname()
	type kv = struct{ Name, Version string }
	return clickhouse.ClientInfo{Products: []kv{
		{Name: "ngram-viewer", Version: vcsShortSHA()},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: strings.TrimSpace(host)},
	}}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
