package executor

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/store"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/tracing"
)

// instrumentedSession counts, times and traces every lookup of a request.
// It is used by one request only.
type instrumentedSession struct {
	store.Session
	metrics *metrics.Metrics
	lookups int
}

func (s *instrumentedSession) Frequencies(ctx context.Context, lookup model.Lookup) ([]model.Blob, error) {
	defer s.observe(ctx, "frequencies", lookup)()
	return s.Session.Frequencies(ctx, lookup)
}

func (s *instrumentedSession) TopNGrams(ctx context.Context, lookup model.Lookup, limit int) ([]model.NGram, error) {
	defer s.observe(ctx, "top", lookup)()
	return s.Session.TopNGrams(ctx, lookup, limit)
}

func (s *instrumentedSession) observe(ctx context.Context, op string, lookup model.Lookup) func() {
	s.lookups++
	_, span := tracing.StartChildSpan(ctx, "store."+op)
	span.SetAttr("path", lookup.Path.Qualified())
	span.SetAttr("label", lookup.Label)
	start := time.Now()
	return func() {
		span.End()
		if s.metrics == nil {
			return
		}
		s.metrics.StoreLookupsTotal.WithLabelValues(string(lookup.Corpus), lookup.Path.Name()).Inc()
		s.metrics.StoreLookupLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
