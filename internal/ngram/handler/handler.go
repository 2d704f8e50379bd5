// Package handler serves GET /ngram/query.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/executor"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
)

type QueryExecutor interface {
	Execute(ctx context.Context, query string, params model.Params) (*executor.Result, error)
}

type Handler struct {
	executor QueryExecutor
	tracker  analytics.Tracker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New returns a Handler. tracker and m may be nil.
func New(exec QueryExecutor, tracker analytics.Tracker, m *metrics.Metrics) *Handler {
	return &Handler{
		executor: exec,
		tracker:  tracker,
		metrics:  m,
		logger:   slog.Default().With("component", "query-handler"),
	}
}

var validate = validator.New()

// Accepted values per query parameter. A value failing its rule is dropped
// and the default for that parameter applies.
const (
	langRule     = "oneof=all nob nno"
	caseSensRule = "oneof=0 1"
	freqRule     = "oneof=rel abs"
	corpusRule   = "oneof=bok avis"
)

// ParseParams reads terms, lang, case_sens, freq and corpus. Missing,
// unknown or malformed values fall back to the defaults.
func ParseParams(q url.Values) (string, model.Params) {
	p := model.DefaultParams()
	if v := q.Get("lang"); valid(v, langRule) {
		p.Lang = model.Lang(v)
	}
	if v := q.Get("case_sens"); valid(v, caseSensRule) {
		p.CaseSensitive = v == "1"
	}
	if v := q.Get("freq"); valid(v, freqRule) {
		p.FreqMode = model.FreqMode(v)
	}
	if v := q.Get("corpus"); valid(v, corpusRule) {
		p.Corpus = model.Corpus(v)
	}
	return q.Get("terms"), p.Normalize()
}

func valid(value, rule string) bool {
	return value != "" && validate.Var(value, rule) == nil
}

// Query answers GET /ngram/query with a JSON array of series.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	terms, params := ParseParams(r.URL.Query())
	event := analytics.NewQueryEvent(terms)
	event.RequestID = logger.RequestID(ctx)
	event.Corpus = string(params.Corpus)
	event.Lang = string(params.Lang)
	event.FreqMode = string(params.FreqMode)
	event.CaseSensitive = params.CaseSensitive

	result, err := h.executor.Execute(ctx, terms, params)
	latency := time.Since(start)
	event.LatencyMs = latency.Milliseconds()
	h.observe(latency)

	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("ngram query failed", "terms", terms, "status", status, "error", err)
		h.count("error")
		event.Outcome = analytics.OutcomeError
		event.Error = err.Error()
		h.track(event)
		h.writeError(w, status, errorMessage(status))
		return
	}

	event.Series = len(result.Series)
	event.Lookups = result.Lookups
	for _, t := range result.Terms {
		event.Terms = append(event.Terms, analytics.TermSummary{
			Term:       t.Raw,
			Kind:       t.Kind.String(),
			Candidates: t.Candidates,
			Series:     t.Series,
		})
	}
	event.Outcome = analytics.OutcomeOK
	if len(result.Series) == 0 {
		event.Outcome = analytics.OutcomeEmpty
	}
	h.count(string(event.Outcome))
	if h.metrics != nil {
		h.metrics.SeriesCount.Observe(float64(len(result.Series)))
	}
	h.track(event)

	h.writeJSON(w, http.StatusOK, result.Series)
}

func errorMessage(status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return "frequency store unavailable"
	case http.StatusGatewayTimeout:
		return "query timed out"
	case http.StatusBadRequest:
		return "invalid query"
	default:
		return "query failed"
	}
}

func (h *Handler) track(event analytics.QueryEvent) {
	if h.tracker != nil {
		h.tracker.Track(event)
	}
}

func (h *Handler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) observe(latency time.Duration) {
	if h.metrics != nil {
		h.metrics.QueryLatency.Observe(latency.Seconds())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
