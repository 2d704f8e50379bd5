// Package store executes compiled lookups against the read-only n-gram
// frequency store. Each corpus lives in its own namespace (bok, avis) with
// one table per n-gram length:
//
//	CREATE TABLE bok.bigram (
//	    first  TEXT   NOT NULL,
//	    second TEXT   NOT NULL,
//	    lang   TEXT   NOT NULL,
//	    freq   BIGINT NOT NULL,
//	    counts JSONB  NOT NULL
//	);
//	CREATE INDEX bigram_lfsf ON bok.bigram (lang, first, second, freq);
//
// counts is the sparse year to count blob of the row and freq its sum.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/errors"
)

// Session is one request's exclusive handle on the store.
type Session interface {
	// Frequencies returns the blob of every row matching the lookup.
	Frequencies(ctx context.Context, lookup model.Lookup) ([]model.Blob, error)
	// TopNGrams returns the distinct n-grams of the limit most frequent
	// matching rows, most frequent first.
	TopNGrams(ctx context.Context, lookup model.Lookup, limit int) ([]model.NGram, error)
	Close() error
}

// Store hands out sessions.
type Store interface {
	Session(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLStore is a Store over a database/sql pool. Every session pins its own
// connection for the duration of a request.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// NewSQL wraps db, rendering lookups with dialect.
func NewSQL(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  slog.Default().With("component", "frequency-store", "dialect", dialect.Name()),
	}
}

func (s *SQLStore) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring connection: %w", apperrors.ErrStoreUnavailable, err)
	}
	return &sqlSession{conn: conn, dialect: s.dialect, logger: s.logger}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlSession struct {
	conn    *sql.Conn
	dialect Dialect
	logger  *slog.Logger
}

func (s *sqlSession) Frequencies(ctx context.Context, lookup model.Lookup) ([]model.Blob, error) {
	query, args := s.dialect.FrequencyQuery(lookup)
	s.logger.Debug("frequency lookup", "path", lookup.Path.Qualified(), "query", query, "args", args)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup on %s: %w", apperrors.ErrStoreUnavailable, lookup.Path.Qualified(), err)
	}
	defer rows.Close()

	var blobs []model.Blob
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning frequency row: %w", err)
		}
		blob, err := DecodeBlob(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding blob of %q: %w", lookup.Label, err)
		}
		blobs = append(blobs, blob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rows from %s: %w", apperrors.ErrStoreUnavailable, lookup.Path.Qualified(), err)
	}
	return blobs, nil
}

func (s *sqlSession) TopNGrams(ctx context.Context, lookup model.Lookup, limit int) ([]model.NGram, error) {
	query, args := s.dialect.TopQuery(lookup, limit)
	s.logger.Debug("top n-gram lookup", "path", lookup.Path.Qualified(), "query", query, "args", args)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: top lookup on %s: %w", apperrors.ErrStoreUnavailable, lookup.Path.Qualified(), err)
	}
	defer rows.Close()

	size := len(lookup.NGram)
	seen := make(map[string]struct{})
	var out []model.NGram
	for rows.Next() {
		ng := make(model.NGram, size)
		dest := make([]any, size)
		for i := range ng {
			dest[i] = &ng[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning n-gram row: %w", err)
		}
		key := ng.Label()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ng)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rows from %s: %w", apperrors.ErrStoreUnavailable, lookup.Path.Qualified(), err)
	}
	return out, nil
}

func (s *sqlSession) Close() error {
	return s.conn.Close()
}

// DecodeBlob parses a stored {"year": count} object.
func DecodeBlob(raw []byte) (model.Blob, error) {
	var counts map[string]int64
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, err
	}
	blob := make(model.Blob, len(counts))
	for key, count := range counts {
		year, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid year key %q", key)
		}
		blob[year] = count
	}
	return blob, nil
}
