// Package analytics records n-gram query events, ships them over Kafka and
// aggregates them into the statistics served at /api/v1/analytics.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a query ended.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// QueryEvent describes one answered n-gram query.
type QueryEvent struct {
	ID            string        `json:"id"`
	RequestID     string        `json:"request_id,omitempty"`
	Query         string        `json:"query"`
	Terms         []TermSummary `json:"terms"`
	Corpus        string        `json:"corpus"`
	Lang          string        `json:"lang"`
	FreqMode      string        `json:"freq"`
	CaseSensitive bool          `json:"case_sens"`
	Series        int           `json:"series"`
	Lookups       int           `json:"lookups"`
	LatencyMs     int64         `json:"latency_ms"`
	Outcome       Outcome       `json:"outcome"`
	Error         string        `json:"error,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// TermSummary is the per-term part of a QueryEvent.
type TermSummary struct {
	Term       string `json:"term"`
	Kind       string `json:"kind"`
	Candidates int    `json:"candidates"`
	Series     int    `json:"series"`
}

// NewQueryEvent stamps a fresh event for query.
func NewQueryEvent(query string) QueryEvent {
	return QueryEvent{
		ID:        uuid.NewString(),
		Query:     query,
		Timestamp: time.Now().UTC(),
	}
}

// EventKey partitions events by request, falling back to the event id for
// requests without one.
func EventKey(e QueryEvent) string {
	if e.RequestID != "" {
		return e.RequestID
	}
	return e.ID
}

// Tracker receives query events. Implementations must not block.
type Tracker interface {
	Track(event QueryEvent)
}

// Trackers fans an event out to several trackers.
type Trackers []Tracker

func (ts Trackers) Track(event QueryEvent) {
	for _, t := range ts {
		t.Track(event)
	}
}
