package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/executor"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/handler"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/store/storetest"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/totals"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/middleware"
)

func testRouter(t *testing.T, limiter *middleware.ClientLimiter) (http.Handler, *analytics.Aggregator) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	st := storetest.New(storetest.Row{
		Corpus: model.CorpusBooks,
		NGram:  model.NGram{"hus"},
		Lang:   model.LangNob,
		Counts: model.Blob{1900: 10},
	})
	tot := totals.New(map[totals.Key]map[int]int64{
		{Corpus: model.CorpusBooks, Lang: model.LangAll}: {1900: 100},
	})
	agg := analytics.NewAggregator(5)
	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(st.Ping))

	exec := executor.New(st, tot, executor.Options{Metrics: m})
	return newRouter(routes{
		query:          handler.New(exec, agg, m),
		analytics:      analytics.NewHandler(agg),
		checker:        checker,
		metrics:        m,
		metricsHandler: metrics.HandlerFor(reg),
		limiter:        limiter,
		corsOrigins:    []string{"https://ngram.example.org"},
		timeout:        0,
	}), agg
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterQuery(t *testing.T) {
	h, agg := testRouter(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/ngram/query?terms=hus", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var series []model.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 1)
	assert.Equal(t, []model.Point{{X: 1900, Y: 10, F: 10}}, series[0].Values)
	assert.EqualValues(t, 1, agg.Stats().TotalQueries)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats analytics.AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.TotalQueries)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h, _ := testRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/health/ready", nil)).Code)

	serve(h, httptest.NewRequest(http.MethodGet, "/ngram/query?terms=hus", nil))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `path="/ngram/query"`))
}

func TestRouterCORS(t *testing.T) {
	h, _ := testRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ngram/query?terms=hus", nil)
	req.Header.Set("Origin", "https://ngram.example.org")
	rec := serve(h, req)
	assert.Equal(t, "https://ngram.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ngram/query?terms=hus", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	assert.Empty(t, serve(h, req).Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterRateLimit(t *testing.T) {
	h, _ := testRouter(t, middleware.NewClientLimiter(0.001, 1))

	first := serve(h, httptest.NewRequest(http.MethodGet, "/ngram/query?terms=hus", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	second := serve(h, httptest.NewRequest(http.MethodGet, "/ngram/query?terms=hus", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
}

func TestRouterNotFound(t *testing.T) {
	h, _ := testRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)).Code)
}
