package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

type stubResolver struct {
	calls   int
	gotNG   model.NGram
	gotP    model.Params
	results []model.NGram
	err     error
}

func (s *stubResolver) Resolve(_ context.Context, ng model.NGram, p model.Params) ([]model.Candidate, error) {
	s.calls++
	s.gotNG = ng
	s.gotP = p
	if s.err != nil {
		return nil, s.err
	}
	exact := p
	exact.CaseSensitive = true
	var out []model.Candidate
	for _, r := range s.results {
		out = append(out, model.Candidate{NGram: r, Params: exact})
	}
	return out, nil
}

func interpret(t *testing.T, in *Interpreter, term string, p model.Params) model.ParsedTerm {
	t.Helper()
	parsed, err := in.Interpret(context.Background(), term, p)
	require.NoError(t, err)
	return parsed
}

func ptr[T any](v T) *T { return &v }

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name      string
		words     []string
		wantWords []string
		want      model.Overrides
	}{
		{"none", []string{"hus"}, []string{"hus"}, model.Overrides{}},
		{"corpus", []string{"hus:avis"}, []string{"hus"}, model.Overrides{Corpus: ptr(model.CorpusNewspapers)}},
		{"lang and year", []string{"i", "huset:nno:1950"}, []string{"i", "huset"},
			model.Overrides{Lang: ptr(model.LangNno), Year: ptr(1950)}},
		{"unknown segment dropped", []string{"hus:xyz"}, []string{"hus"}, model.Overrides{}},
		{"last writer wins", []string{"hus:nob:nno"}, []string{"hus"}, model.Overrides{Lang: ptr(model.LangNno)}},
		{"suffix only token", []string{"(a b)", ":avis"}, []string{"(a b)"}, model.Overrides{Corpus: ptr(model.CorpusNewspapers)}},
		{"group untouched", []string{"(a:b)"}, []string{"(a:b)"}, model.Overrides{}},
		{"bare colon kept", []string{":"}, []string{":"}, model.Overrides{}},
		{"only last token", []string{"hus:avis", "i"}, []string{"hus:avis", "i"}, model.Overrides{}},
		{"prefix match rejected", []string{"hus:nobx:19500"}, []string{"hus"}, model.Overrides{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			words, o := ExtractMetadata(tc.words)
			assert.Equal(t, tc.wantWords, words)
			assert.Equal(t, tc.want, o)
		})
	}
}

func TestInterpretSingle(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "i huset", model.DefaultParams())

	assert.Equal(t, model.KindSingle, parsed.Kind)
	require.Len(t, parsed.Candidates, 1)
	assert.Equal(t, model.NGram{"i", "huset"}, parsed.Candidates[0].NGram)
	assert.Equal(t, model.DefaultParams(), parsed.Candidates[0].Params)
}

func TestInterpretCapsTokens(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "a b c d e:nno", model.DefaultParams())

	require.Len(t, parsed.Candidates, 1)
	assert.Equal(t, model.NGram{"a", "b", "c"}, parsed.Candidates[0].NGram)
	assert.Equal(t, model.LangNno, parsed.Candidates[0].Params.Lang)
}

func TestInterpretSuffixOnDroppedTokenStillApplies(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "a b c d:avis", model.DefaultParams())

	require.Len(t, parsed.Candidates, 1)
	assert.Equal(t, model.NGram{"a", "b", "c"}, parsed.Candidates[0].NGram)
	assert.Equal(t, model.CorpusNewspapers, parsed.Candidates[0].Params.Corpus)
	assert.Equal(t, model.LangAll, parsed.Candidates[0].Params.Lang)
}

func TestInterpretNewspaperSuffixForcesAllLanguages(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	p := model.DefaultParams()
	p.Lang = model.LangNob

	parsed := interpret(t, in, "hus:avis", p)
	require.Len(t, parsed.Candidates, 1)
	got := parsed.Candidates[0].Params
	assert.Equal(t, model.CorpusNewspapers, got.Corpus)
	assert.Equal(t, model.LangAll, got.Lang)
}

func TestInterpretBooksSuffixKeepsExplicitLanguage(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	p := model.DefaultParams()
	p.Corpus = model.CorpusNewspapers

	parsed := interpret(t, in, "hus:bok:nno", p)
	got := parsed.Candidates[0].Params
	assert.Equal(t, model.CorpusBooks, got.Corpus)
	assert.Equal(t, model.LangNno, got.Lang)
}

func TestInterpretOverridesDoNotLeak(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	p := model.DefaultParams()

	first := interpret(t, in, "hus:avis:1950", p)
	second := interpret(t, in, "hus", p)

	assert.Equal(t, model.CorpusNewspapers, first.Candidates[0].Params.Corpus)
	assert.Equal(t, model.DefaultParams(), second.Candidates[0].Params)
}

func TestInterpretAggregate(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "hus+huset:nno+i huset", model.DefaultParams())

	assert.Equal(t, model.KindAggregate, parsed.Kind)
	assert.Equal(t, []string{"hus", "huset", "i huset"}, parsed.Labels())
	assert.Equal(t, model.LangAll, parsed.Candidates[0].Params.Lang)
	assert.Equal(t, model.LangNno, parsed.Candidates[1].Params.Lang)
	assert.Equal(t, model.LangAll, parsed.Candidates[2].Params.Lang)
}

func TestInterpretAggregatePieceLimit(t *testing.T) {
	limits := model.DefaultLimits()
	limits.MaxPieces = 2
	in := New(limits, nil)

	parsed := interpret(t, in, "a+b+c+d", model.DefaultParams())
	assert.Equal(t, []string{"a", "b"}, parsed.Labels())
}

func TestInterpretAggregateSkipsEmptyPieces(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "a++b+", model.DefaultParams())
	assert.Equal(t, []string{"a", "b"}, parsed.Labels())
}

func TestInterpretAggregateIgnoresWildcards(t *testing.T) {
	res := &stubResolver{}
	in := New(model.DefaultLimits(), res)

	parsed := interpret(t, in, "hu%+hus", model.DefaultParams())
	assert.Equal(t, model.KindAggregate, parsed.Kind)
	assert.Equal(t, []string{"hu", "hus"}, parsed.Labels())
	assert.Zero(t, res.calls)
}

func TestInterpretWildcard(t *testing.T) {
	res := &stubResolver{results: []model.NGram{{"huset"}, {"hus"}}}
	in := New(model.DefaultLimits(), res)

	parsed := interpret(t, in, "hus%:nob", model.DefaultParams())

	assert.Equal(t, model.KindWildcard, parsed.Kind)
	assert.Equal(t, model.NGram{"hus%"}, res.gotNG)
	assert.Equal(t, model.LangNob, res.gotP.Lang)
	assert.False(t, res.gotP.CaseSensitive)
	require.Len(t, parsed.Candidates, 2)
	assert.True(t, parsed.Candidates[0].Params.CaseSensitive)
}

func TestInterpretWildcardNoResolver(t *testing.T) {
	parsed := interpret(t, New(model.DefaultLimits(), nil), "hus%", model.DefaultParams())
	assert.Equal(t, model.KindWildcard, parsed.Kind)
	assert.Empty(t, parsed.Candidates)
}

func TestInterpretWildcardError(t *testing.T) {
	boom := errors.New("store down")
	in := New(model.DefaultLimits(), &stubResolver{err: boom})

	_, err := in.Interpret(context.Background(), "hus%", model.DefaultParams())
	assert.ErrorIs(t, err, boom)
}

func TestInterpretTruncated(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "(i på) (huset hytta):nno", model.DefaultParams())

	assert.Equal(t, model.KindTruncated, parsed.Kind)
	assert.Equal(t, []string{"i huset", "i hytta", "på huset", "på hytta"}, parsed.Labels())
	for _, c := range parsed.Candidates {
		assert.Equal(t, model.LangNno, c.Params.Lang)
	}
}

func TestInterpretTruncatedSuffixAfterGroup(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "i (huset hytta) :avis", model.DefaultParams())

	assert.Equal(t, []string{"i huset", "i hytta"}, parsed.Labels())
	assert.Equal(t, model.CorpusNewspapers, parsed.Candidates[0].Params.Corpus)
}

func TestInterpretTruncatedAlternativeLimit(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "(a b c d e f g)", model.DefaultParams())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, parsed.Labels())
}

func TestInterpretEmptyGroup(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, "i ()", model.DefaultParams())
	assert.Equal(t, model.KindTruncated, parsed.Kind)
	assert.Empty(t, parsed.Candidates)
}

func TestInterpretSuffixOnly(t *testing.T) {
	in := New(model.DefaultLimits(), nil)
	parsed := interpret(t, in, ":avis", model.DefaultParams())
	assert.Empty(t, parsed.Candidates)
}
