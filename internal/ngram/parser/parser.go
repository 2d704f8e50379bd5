// Package parser interprets one query term: it extracts the colon metadata
// suffix, classifies the term and expands it into concrete candidates.
package parser

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/combiner"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/tokenizer"
)

// WildcardResolver expands a wildcarded n-gram into concrete candidates.
// wildcard.Resolver satisfies it.
type WildcardResolver interface {
	Resolve(ctx context.Context, ng model.NGram, p model.Params) ([]model.Candidate, error)
}

// Interpreter turns term strings into parsed terms for one request.
type Interpreter struct {
	limits    model.Limits
	wildcards WildcardResolver
	logger    *slog.Logger
}

// New returns an Interpreter. wildcards may be nil when no store is
// reachable; wildcard terms then yield no candidates.
func New(limits model.Limits, wildcards WildcardResolver) *Interpreter {
	return &Interpreter{
		limits:    limits.WithDefaults(),
		wildcards: wildcards,
		logger:    slog.Default().With("component", "term-interpreter"),
	}
}

// Interpret classifies term and builds its candidates under params.
//
// Classification is by precedence: a '+' makes the term an aggregate, a
// wildcard marker makes it a wildcard term, a parenthesised group makes it
// truncated, and anything else is a single n-gram. A term with no tokens
// left after metadata extraction has no candidates.
func (in *Interpreter) Interpret(ctx context.Context, term string, params model.Params) (model.ParsedTerm, error) {
	parsed := model.ParsedTerm{Raw: term, Kind: model.KindSingle}
	params = params.Normalize()

	if strings.Contains(term, "+") {
		parsed.Kind = model.KindAggregate
		parsed.Candidates = in.aggregate(term, params)
		in.logTerm(parsed)
		return parsed, nil
	}

	words, overrides := ExtractMetadata(tokenizer.Words(term))
	words = in.capTokens(words)
	params = params.Apply(overrides)
	if len(words) == 0 {
		return parsed, nil
	}

	ng := model.NGram(words)
	switch {
	case ng.HasWildcard():
		parsed.Kind = model.KindWildcard
		if in.wildcards == nil {
			break
		}
		cands, err := in.wildcards.Resolve(ctx, ng, params)
		if err != nil {
			return parsed, err
		}
		parsed.Candidates = cands
	case hasGroup(words):
		parsed.Kind = model.KindTruncated
		positions := make([][]string, len(words))
		for i, w := range words {
			if tokenizer.IsGroup(w) {
				positions[i] = tokenizer.Alternatives(w, in.limits.MaxAlternatives)
			} else {
				positions[i] = []string{w}
			}
		}
		for _, combo := range combiner.Combine(positions) {
			parsed.Candidates = append(parsed.Candidates, model.Candidate{NGram: combo, Params: params})
		}
	default:
		parsed.Candidates = []model.Candidate{{NGram: ng, Params: params}}
	}

	in.logTerm(parsed)
	return parsed, nil
}

// aggregate builds one candidate per '+' piece. Each piece carries its own
// metadata suffix. Pieces are looked up literally: a wildcard marker in a
// piece is dropped.
func (in *Interpreter) aggregate(term string, params model.Params) []model.Candidate {
	pieces := strings.Split(term, "+")
	if len(pieces) > in.limits.MaxPieces {
		pieces = pieces[:in.limits.MaxPieces]
	}

	var cands []model.Candidate
	for _, piece := range pieces {
		piece = strings.ReplaceAll(piece, model.WildcardMarker, "")
		words, overrides := ExtractMetadata(tokenizer.Words(piece))
		words = in.capTokens(words)
		if len(words) == 0 {
			continue
		}
		cands = append(cands, model.Candidate{
			NGram:  model.NGram(words),
			Params: params.Apply(overrides),
		})
	}
	return cands
}

func (in *Interpreter) capTokens(words []string) []string {
	if len(words) > in.limits.MaxTokens {
		return words[:in.limits.MaxTokens]
	}
	return words
}

func (in *Interpreter) logTerm(t model.ParsedTerm) {
	in.logger.Debug("term interpreted",
		"term", t.Raw,
		"kind", t.Kind.String(),
		"candidates", len(t.Candidates),
	)
}

// ExtractMetadata strips a ":seg:seg" suffix from the last token and parses
// it. A token that is only a suffix, as in "(a b):avis", is removed. A bare
// run of colons with no recognised segment stays a literal search token.
// Groups never carry metadata.
func ExtractMetadata(words []string) ([]string, model.Overrides) {
	if len(words) == 0 {
		return words, model.Overrides{}
	}
	last := words[len(words)-1]
	if tokenizer.IsGroup(last) {
		return words, model.Overrides{}
	}
	idx := strings.Index(last, ":")
	if idx < 0 {
		return words, model.Overrides{}
	}

	base := last[:idx]
	overrides := model.ParseSuffix(strings.Split(last[idx+1:], ":"))
	if base == "" && overrides.IsZero() {
		return words, overrides
	}

	out := make([]string, 0, len(words))
	out = append(out, words[:len(words)-1]...)
	if base != "" {
		out = append(out, base)
	}
	return out, overrides
}

func hasGroup(words []string) bool {
	for _, w := range words {
		if tokenizer.IsGroup(w) {
			return true
		}
	}
	return false
}
