package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/resilience"
)

// Guarded routes every session and lookup of a Store through a circuit
// breaker. While the breaker is open requests fail at once with
// ErrStoreUnavailable instead of waiting on a dead backend.
type Guarded struct {
	Store
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps st. Callers abandoning a request do not count against
// the breaker; see IsStoreFailure.
func NewGuarded(st Store, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{Store: st, breaker: breaker}
}

// IsStoreFailure is the breaker's failure test: cancellations are the
// client's doing, everything else is the store's.
func IsStoreFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (g *Guarded) Session(ctx context.Context) (Session, error) {
	var sess Session
	err := g.execute(func() error {
		var err error
		sess, err = g.Store.Session(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &guardedSession{Session: sess, g: g}, nil
}

func (g *Guarded) execute(fn func() error) error {
	err := g.breaker.Execute(fn)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err)
	}
	return err
}

type guardedSession struct {
	Session
	g *Guarded
}

func (s *guardedSession) Frequencies(ctx context.Context, lookup model.Lookup) ([]model.Blob, error) {
	var blobs []model.Blob
	err := s.g.execute(func() error {
		var err error
		blobs, err = s.Session.Frequencies(ctx, lookup)
		return err
	})
	return blobs, err
}

func (s *guardedSession) TopNGrams(ctx context.Context, lookup model.Lookup, limit int) ([]model.NGram, error) {
	var ngrams []model.NGram
	err := s.g.execute(func() error {
		var err error
		ngrams, err = s.Session.TopNGrams(ctx, lookup, limit)
		return err
	})
	return ngrams, err
}
