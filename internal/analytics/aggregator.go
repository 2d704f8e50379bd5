package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/kafka"
)

const latencyWindow = 10000

type AggregatedStats struct {
	TotalQueries     int64            `json:"total_queries"`
	EmptyQueries     int64            `json:"empty_queries"`
	FailedQueries    int64            `json:"failed_queries"`
	AvgLatencyMs     float64          `json:"avg_latency_ms"`
	P50LatencyMs     int64            `json:"p50_latency_ms"`
	P95LatencyMs     int64            `json:"p95_latency_ms"`
	P99LatencyMs     int64            `json:"p99_latency_ms"`
	TopTerms         []TermCount      `json:"top_terms"`
	EmptyTerms       []TermCount      `json:"empty_terms"`
	TermKinds        map[string]int64 `json:"term_kinds"`
	Corpora          map[string]int64 `json:"corpora"`
	QueriesPerMinute float64          `json:"queries_per_minute"`
}

type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Aggregator keeps running query statistics in memory. Latency percentiles
// cover the most recent latencyWindow queries.
type Aggregator struct {
	mu           sync.RWMutex
	totalQueries atomic.Int64
	emptyQueries atomic.Int64
	failed       atomic.Int64
	latencies    []int64
	next         int
	termCounts   map[string]int64
	emptyTerms   map[string]int64
	kinds        map[string]int64
	corpora      map[string]int64
	topN         int
	startTime    time.Time

	logger *slog.Logger
}

func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		latencies:  make([]int64, 0, latencyWindow),
		termCounts: make(map[string]int64),
		emptyTerms: make(map[string]int64),
		kinds:      make(map[string]int64),
		corpora:    make(map[string]int64),
		topN:       topN,
		startTime:  time.Now(),
		logger:     slog.Default().With("component", "analytics-aggregator"),
	}
}

// Consume feeds the aggregator from a Kafka consumer until ctx is done.
func (a *Aggregator) Consume(ctx context.Context, consumer *kafka.Consumer[QueryEvent]) error {
	a.logger.Info("analytics aggregator consuming")
	return consumer.Run(ctx)
}

// HandleEvent adapts the aggregator to a kafka.Consumer.
func HandleEvent(agg *Aggregator) kafka.Handler[QueryEvent] {
	return func(_ context.Context, event QueryEvent) error {
		agg.Track(event)
		return nil
	}
}

// Track records one event.
func (a *Aggregator) Track(event QueryEvent) {
	a.totalQueries.Add(1)
	switch event.Outcome {
	case OutcomeEmpty:
		a.emptyQueries.Add(1)
	case OutcomeError:
		a.failed.Add(1)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
	if event.Corpus != "" {
		a.corpora[event.Corpus]++
	}
	for _, t := range event.Terms {
		a.termCounts[t.Term]++
		a.kinds[t.Kind]++
		if t.Series == 0 && event.Outcome != OutcomeError {
			a.emptyTerms[t.Term]++
		}
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalQueries:  a.totalQueries.Load(),
		EmptyQueries:  a.emptyQueries.Load(),
		FailedQueries: a.failed.Load(),
		TermKinds:     copyCounts(a.kinds),
		Corpora:       copyCounts(a.corpora),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopTerms = topN(a.termCounts, a.topN)
	stats.EmptyTerms = topN(a.emptyTerms, a.topN)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalQueries) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then term, so equal counts list stably.
func topN(counts map[string]int64, n int) []TermCount {
	result := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		result = append(result, TermCount{Term: term, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Term < result[j].Term
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
