// Package executor runs the n-gram query pipeline for one request:
// tokenize, interpret, compile, look up and merge. Every request holds its
// own store session from the first lookup to the last and runs its lookups
// sequentially on it.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/compiler"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/merger"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/parser"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/wildcard"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/store"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/totals"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/tracing"
)

// Result is the outcome of one query.
type Result struct {
	Query   string         `json:"query"`
	Series  []model.Series `json:"series"`
	Terms   []TermResult   `json:"terms"`
	Lookups int            `json:"lookups"`
}

// TermResult summarises how one term was expanded.
type TermResult struct {
	Raw        string     `json:"term"`
	Kind       model.Kind `json:"kind"`
	Candidates int        `json:"candidates"`
	Series     int        `json:"series"`
}

// Options tune an Executor. Zero values are valid.
type Options struct {
	Limits   model.Limits
	Metrics  *metrics.Metrics
	LogSpans bool
}

type Executor struct {
	store    store.Store
	merger   *merger.Merger
	limits   model.Limits
	metrics  *metrics.Metrics
	logSpans bool
	logger   *slog.Logger
}

// New returns an Executor over st dividing by tot. tot is shared read-only
// by every request.
func New(st store.Store, tot *totals.YearlyTotals, opts Options) *Executor {
	limits := opts.Limits.WithDefaults()
	return &Executor{
		store:    st,
		merger:   merger.New(tot, limits.MinYear),
		limits:   limits,
		metrics:  opts.Metrics,
		logSpans: opts.LogSpans,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Execute answers query under params. Any store failure aborts the whole
// query; nothing partial is returned.
func (e *Executor) Execute(ctx context.Context, query string, params model.Params) (*Result, error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "ngram.query", logger.RequestID(ctx))
	defer func() {
		span.End()
		if e.logSpans {
			span.Log()
		}
	}()

	result := &Result{Query: query, Series: []model.Series{}, Terms: []TermResult{}}
	terms := tokenizer.Split(query, e.limits)
	span.SetAttr("terms", len(terms))
	if len(terms) == 0 {
		return result, nil
	}

	sess, err := e.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	is := &instrumentedSession{Session: sess, metrics: e.metrics}
	interp := parser.New(e.limits, wildcard.New(is, e.limits.WildcardTopK))

	for _, term := range terms {
		series, tr, err := e.executeTerm(ctx, interp, is, term, params)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", term, err)
		}
		result.Series = append(result.Series, series...)
		result.Terms = append(result.Terms, tr)
	}
	result.Lookups = is.lookups

	span.SetAttr("series", len(result.Series))
	span.SetAttr("lookups", result.Lookups)
	logger.FromContext(ctx).Info("query executed",
		"query", query,
		"terms", len(result.Terms),
		"series", len(result.Series),
		"lookups", result.Lookups,
		"corpus", params.Corpus,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (e *Executor) executeTerm(ctx context.Context, interp *parser.Interpreter, is *instrumentedSession, term string, params model.Params) ([]model.Series, TermResult, error) {
	ctx, span := tracing.StartChildSpan(ctx, "ngram.term")
	defer span.End()

	parsed, err := interp.Interpret(ctx, term, params)
	if err != nil {
		return nil, TermResult{}, err
	}
	span.SetAttr("term", term)
	span.SetAttr("kind", parsed.Kind.String())
	span.SetAttr("candidates", len(parsed.Candidates))
	if e.metrics != nil {
		e.metrics.TermsTotal.WithLabelValues(parsed.Kind.String()).Inc()
		if parsed.Kind == model.KindWildcard {
			e.metrics.WildcardMatches.Observe(float64(len(parsed.Candidates)))
		}
	}

	blobs := make([][]model.Blob, len(parsed.Candidates))
	for i, c := range parsed.Candidates {
		lookup := compiler.CompileCandidate(c)
		rows, err := is.Frequencies(ctx, lookup)
		if err != nil {
			return nil, TermResult{}, err
		}
		blobs[i] = rows
	}

	series := e.merger.Merge(parsed, blobs)
	return series, TermResult{
		Raw:        term,
		Kind:       parsed.Kind,
		Candidates: len(parsed.Candidates),
		Series:     len(series),
	}, nil
}
