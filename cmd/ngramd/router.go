package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/handler"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/middleware"
)

type routes struct {
	query     *handler.Handler
	analytics *analytics.Handler
	checker   *health.Checker
	metrics   *metrics.Metrics

	// metricsHandler is mounted at /metrics when set.
	metricsHandler http.Handler
	// limiter is nil when rate limiting is disabled.
	limiter     *middleware.ClientLimiter
	corsOrigins []string
	timeout     time.Duration
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", chimw.RequestIDHeader},
		MaxAge:         300,
	}))
	if rt.metrics != nil {
		r.Use(middleware.Metrics(rt.metrics))
	}
	if rt.limiter != nil {
		r.Use(middleware.RateLimit(rt.limiter, rt.metrics))
	}

	r.Get("/health/live", rt.checker.LiveHandler())
	r.Get("/health/ready", rt.checker.ReadyHandler())
	if rt.metricsHandler != nil {
		r.Handle("/metrics", rt.metricsHandler)
	}

	r.Group(func(r chi.Router) {
		if rt.timeout > 0 {
			r.Use(middleware.Timeout(rt.timeout))
		}
		r.Get("/ngram/query", rt.query.Query)
		r.Get("/api/v1/analytics", rt.analytics.Stats)
	})
	return r
}
