package totals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/errors"
)

// LoadFile reads a totals document from disk. Files ending in .gz are
// decompressed first.
func LoadFile(path string) (*YearlyTotals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", apperrors.ErrTotalsUnavailable, path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: reading gzip header of %s: %w", apperrors.ErrTotalsUnavailable, path, err)
		}
		defer zr.Close()
		r = zr
	}

	t, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrTotalsUnavailable, path, err)
	}
	slog.Default().With("component", "totals").Info("yearly totals loaded",
		"source", path,
		"series", t.Len(),
	)
	return t, nil
}

// HashSource is the subset of a Redis client LoadRedis needs.
type HashSource interface {
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// LoadRedis reads one hash per series stored under "<prefix>:<corpus>:<lang>"
// with year fields and total values.
func LoadRedis(ctx context.Context, src HashSource, prefix string) (*YearlyTotals, error) {
	keys, err := src.ScanKeys(ctx, prefix+":*")
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %w", apperrors.ErrTotalsUnavailable, prefix, err)
	}

	data := make(map[Key]map[int]int64, len(keys))
	for _, key := range keys {
		parts := strings.Split(strings.TrimPrefix(key, prefix+":"), ":")
		if len(parts) != 2 {
			continue
		}
		fields, err := src.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", apperrors.ErrTotalsUnavailable, key, err)
		}
		years := make(map[int]int64, len(fields))
		for field, value := range fields {
			y, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: invalid year %q", apperrors.ErrTotalsUnavailable, key, field)
			}
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: invalid total %q for %d", apperrors.ErrTotalsUnavailable, key, value, y)
			}
			years[y] = n
		}
		data[Key{model.Corpus(parts[0]), model.Lang(parts[1])}] = years
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no series under %s", apperrors.ErrTotalsUnavailable, prefix)
	}

	t := &YearlyTotals{series: data}
	slog.Default().With("component", "totals").Info("yearly totals loaded",
		"source", "redis",
		"prefix", prefix,
		"series", t.Len(),
	)
	return t, nil
}

// HashSink is the subset of a Redis client StoreRedis needs.
type HashSink interface {
	ReplaceHash(ctx context.Context, key string, fields map[string]any) error
}

// StoreRedis writes every series of t as one hash in the layout LoadRedis
// reads.
func StoreRedis(ctx context.Context, sink HashSink, prefix string, t *YearlyTotals) error {
	for _, k := range t.Keys() {
		years := t.series[k]
		fields := make(map[string]any, len(years))
		for y, n := range years {
			fields[strconv.Itoa(y)] = n
		}
		if err := sink.ReplaceHash(ctx, prefix+":"+k.String(), fields); err != nil {
			return fmt.Errorf("storing totals %s: %w", k, err)
		}
	}
	return nil
}
