// Package wildcard resolves a wildcarded n-gram into its most frequent
// concrete matches in the frequency store.
package wildcard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/compiler"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

// Source runs a top-k lookup. store.Session satisfies it.
type Source interface {
	TopNGrams(ctx context.Context, lookup model.Lookup, limit int) ([]model.NGram, error)
}

// Resolver expands wildcard terms for one request.
type Resolver struct {
	src    Source
	topK   int
	logger *slog.Logger
}

// New returns a Resolver reading from src and keeping at most topK matches.
func New(src Source, topK int) *Resolver {
	return &Resolver{
		src:    src,
		topK:   topK,
		logger: slog.Default().With("component", "wildcard-resolver"),
	}
}

// Resolve looks up the topK most frequent rows matching ng under p and
// returns their distinct n-grams as candidates, most frequent first.
// Candidates are marked Literal and looked up exactly as stored
// (CaseSensitive=true). No match yields no candidates.
func (r *Resolver) Resolve(ctx context.Context, ng model.NGram, p model.Params) ([]model.Candidate, error) {
	lookup := compiler.Compile(ng, p)
	matches, err := r.src.TopNGrams(ctx, lookup, r.topK)
	if err != nil {
		return nil, fmt.Errorf("resolving wildcard %q: %w", lookup.Label, err)
	}
	if len(matches) > r.topK {
		matches = matches[:r.topK]
	}

	resolved := p.Normalize()
	resolved.Lang = lookup.Lang
	resolved.Corpus = lookup.Corpus
	resolved.CaseSensitive = true

	candidates := make([]model.Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, model.Candidate{NGram: m, Params: resolved, Literal: true})
	}
	r.logger.Debug("wildcard resolved",
		"pattern", lookup.Label,
		"path", lookup.Path.Qualified(),
		"matches", len(candidates),
	)
	return candidates, nil
}
