// Package storetest provides an in-memory store.Store that evaluates
// compiled lookups against fixture rows, for tests of the query pipeline.
package storetest

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/store"
)

// Row is one stored (n-gram, language) row.
type Row struct {
	Corpus model.Corpus
	NGram  model.NGram
	Lang   model.Lang
	Counts model.Blob
}

func (r Row) freq() int64 {
	var n int64
	for _, c := range r.Counts {
		n += c
	}
	return n
}

// Store is a store.Store over fixed rows. Err, when set, fails every
// lookup.
type Store struct {
	rows []Row

	mu       sync.Mutex
	Err      error
	opened   int
	closed   int
	executed []model.Lookup
}

var _ store.Store = (*Store)(nil)

func New(rows ...Row) *Store {
	return &Store{rows: rows}
}

func (s *Store) Session(ctx context.Context) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	return &session{store: s}, nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Sessions reports how many sessions were opened and closed.
func (s *Store) Sessions() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// Lookups returns a copy of every lookup executed so far.
func (s *Store) Lookups() []model.Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Lookup(nil), s.executed...)
}

func (s *Store) record(l model.Lookup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = append(s.executed, l)
	return s.Err
}

func (s *Store) match(l model.Lookup) []Row {
	var out []Row
	for _, r := range s.rows {
		if r.Corpus == l.Corpus && len(r.NGram) == len(l.NGram) && matches(r, l.Predicates) {
			out = append(out, r)
		}
	}
	return out
}

type session struct {
	store  *Store
	closed bool
}

func (s *session) Frequencies(ctx context.Context, l model.Lookup) ([]model.Blob, error) {
	if err := s.check(l); err != nil {
		return nil, err
	}
	var blobs []model.Blob
	for _, r := range s.store.match(l) {
		blob := make(model.Blob, len(r.Counts))
		blob.Add(r.Counts)
		blobs = append(blobs, blob)
	}
	return blobs, nil
}

func (s *session) TopNGrams(ctx context.Context, l model.Lookup, limit int) ([]model.NGram, error) {
	if err := s.check(l); err != nil {
		return nil, err
	}
	rows := s.store.match(l)
	sort.SliceStable(rows, func(i, j int) bool {
		if fi, fj := rows[i].freq(), rows[j].freq(); fi != fj {
			return fi > fj
		}
		return rows[i].NGram.Label() < rows[j].NGram.Label()
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	seen := make(map[string]struct{})
	var out []model.NGram
	for _, r := range rows {
		if _, dup := seen[r.NGram.Label()]; dup {
			continue
		}
		seen[r.NGram.Label()] = struct{}{}
		out = append(out, append(model.NGram(nil), r.NGram...))
	}
	return out, nil
}

func (s *session) Close() error {
	if s.closed {
		return errors.New("session closed twice")
	}
	s.closed = true
	s.store.mu.Lock()
	s.store.closed++
	s.store.mu.Unlock()
	return nil
}

func (s *session) check(l model.Lookup) error {
	if s.closed {
		return errors.New("lookup on closed session")
	}
	return s.store.record(l)
}

func matches(r Row, preds []model.Predicate) bool {
	for _, p := range preds {
		var value string
		switch p.Field {
		case model.FieldFirst, model.FieldSecond, model.FieldThird:
			idx := int(p.Field - model.FieldFirst)
			if idx >= len(r.NGram) {
				return false
			}
			value = r.NGram[idx]
		case model.FieldLang:
			value = string(r.Lang)
		case model.FieldYear:
			year, err := strconv.Atoi(p.Values[0])
			if err != nil {
				return false
			}
			if _, ok := r.Counts[year]; !ok {
				return false
			}
			continue
		}
		if !test(p, value) {
			return false
		}
	}
	return true
}

func test(p model.Predicate, value string) bool {
	switch p.Op {
	case model.OpLike:
		return likePattern(p.Values[0]).MatchString(value)
	default:
		for _, v := range p.Values {
			if v == value {
				return true
			}
		}
		return false
	}
}

// likePattern translates a LIKE pattern with backslash escapes.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
