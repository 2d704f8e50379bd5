package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/config"
)

func TestOptions(t *testing.T) {
	cfg := config.ClickHouseConfig{
		Addr:        []string{"ch1:9000", "ch2:9000"},
		Database:    "ngram",
		User:        "reader",
		Password:    "secret",
		DialTimeout: 3 * time.Second,
		Compression: true,
	}

	opts := Options(cfg)
	assert.Equal(t, cfg.Addr, opts.Addr)
	assert.Equal(t, "ngram", opts.Auth.Database)
	assert.Equal(t, "reader", opts.Auth.Username)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)
	require.NotNil(t, opts.Compression)
	assert.Equal(t, clickhouse.CompressionLZ4, opts.Compression.Method)
	require.NotEmpty(t, opts.ClientInfo.Products)
	assert.Equal(t, "ngram-viewer", opts.ClientInfo.Products[0].Name)

	cfg.Compression = false
	assert.Nil(t, Options(cfg).Compression)
}
