package store

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/clickhouse"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/postgres"
)

const (
	DriverPostgres   = "postgres"
	DriverClickHouse = "clickhouse"
)

// Open connects the backend selected by cfg.Store.Driver.
func Open(cfg *config.Config) (*SQLStore, error) {
	switch cfg.Store.Driver {
	case DriverClickHouse:
		client, err := clickhouse.New(cfg.ClickHouse)
		if err != nil {
			return nil, fmt.Errorf("opening clickhouse frequency store: %w", err)
		}
		return NewSQL(client.DB, ClickHouse{}), nil
	case DriverPostgres, "":
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("opening postgres frequency store: %w", err)
		}
		return NewSQL(client.DB, Postgres{}), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
