package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/store/storetest"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/totals"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/pkg/metrics"
)

func fixtureTotals() *totals.YearlyTotals {
	years := func(n int64) map[int]int64 {
		return map[int]int64{1800: n, 1900: n, 1950: n, 2000: n}
	}
	return totals.New(map[totals.Key]map[int]int64{
		{Corpus: model.CorpusBooks, Lang: model.LangNob}:      years(1000),
		{Corpus: model.CorpusBooks, Lang: model.LangNno}:      years(500),
		{Corpus: model.CorpusBooks, Lang: model.LangAll}:      years(1500),
		{Corpus: model.CorpusNewspapers, Lang: model.LangAll}: years(2000),
	})
}

func bok(lang model.Lang, counts model.Blob, words ...string) storetest.Row {
	return storetest.Row{Corpus: model.CorpusBooks, NGram: words, Lang: lang, Counts: counts}
}

func fixtureStore() *storetest.Store {
	rows := []storetest.Row{
		bok(model.LangNob, model.Blob{1800: 7, 1900: 10, 1950: 20}, "hus"),
		bok(model.LangNob, model.Blob{1900: 5}, "Hus"),
		bok(model.LangNno, model.Blob{1900: 4}, "hus"),
		bok(model.LangNob, model.Blob{1900: 1}, "i"),
		bok(model.LangNob, model.Blob{1900: 3}, "i", "huset"),
		bok(model.LangNob, model.Blob{1900: 2}, "i", "hytta"),
		storetest.Row{Corpus: model.CorpusNewspapers, NGram: model.NGram{"hus"}, Lang: model.LangAll, Counts: model.Blob{1950: 40}},
	}
	// twelve concrete matches for "hus%", most frequent first
	for i := 0; i < 12; i++ {
		rows = append(rows, bok(model.LangNob, model.Blob{1950: int64(100 - i)}, fmt.Sprintf("hus%02d", i)))
	}
	return storetest.New(rows...)
}

func nobParams() model.Params {
	p := model.DefaultParams()
	p.Lang = model.LangNob
	return p
}

func TestExecuteSingleTermMergesCaseVariants(t *testing.T) {
	st := fixtureStore()
	exec := New(st, fixtureTotals(), Options{})

	res, err := exec.Execute(context.Background(), "hus", nobParams())
	require.NoError(t, err)

	require.Len(t, res.Series, 1)
	s := res.Series[0]
	assert.Equal(t, "hus", s.Key)
	assert.Equal(t, []model.Point{
		{X: 1900, Y: 1.5, F: 15},
		{X: 1950, Y: 2, F: 20},
	}, s.Values, "1800 is excluded, hus and Hus share one series")
	assert.Equal(t, 1, res.Lookups)
}

func TestExecuteWildcardScenario(t *testing.T) {
	st := fixtureStore()
	exec := New(st, fixtureTotals(), Options{})

	res, err := exec.Execute(context.Background(), "hus,hus*", nobParams())
	require.NoError(t, err)

	require.Len(t, res.Terms, 2)
	assert.Equal(t, model.KindSingle, res.Terms[0].Kind)
	assert.Equal(t, model.KindWildcard, res.Terms[1].Kind)
	assert.LessOrEqual(t, res.Terms[1].Candidates, 10)

	require.Len(t, res.Series, 1+res.Terms[1].Series)
	assert.Equal(t, "hus", res.Series[0].Key)
	assert.Equal(t, "hus00", res.Series[1].Key)

	// lookups after the wildcard resolution compare exactly, without the
	// first-letter case variant
	lookups := st.Lookups()
	require.GreaterOrEqual(t, len(lookups), 3)
	assert.Equal(t, model.OpIn, lookups[0].Predicates[0].Op, "plain term stays case-insensitive")
	assert.Equal(t, model.OpLike, lookups[1].Predicates[0].Op)
	for _, l := range lookups[2:] {
		assert.Equal(t, model.OpEq, l.Predicates[0].Op, l.Label)
	}
}

func TestExecuteNewspaperSuffixIgnoresLang(t *testing.T) {
	exec := New(fixtureStore(), fixtureTotals(), Options{})

	res, err := exec.Execute(context.Background(), "hus:avis", nobParams())
	require.NoError(t, err)

	require.Len(t, res.Series, 1)
	assert.Equal(t, "all", res.Series[0].Lang)
	assert.Equal(t, "avis", res.Series[0].Corpus)
	assert.Equal(t, []model.Point{{X: 1950, Y: 2, F: 40}}, res.Series[0].Values)
}

func TestExecuteAggregate(t *testing.T) {
	exec := New(fixtureStore(), fixtureTotals(), Options{})
	p := nobParams()
	p.CaseSensitive = true

	res, err := exec.Execute(context.Background(), "hus + i", p)
	require.NoError(t, err)

	require.Len(t, res.Series, 1)
	assert.Equal(t, "hus+i", res.Series[0].Key)
	assert.Equal(t, model.Point{X: 1900, Y: 1.1, F: 11}, res.Series[0].Values[0])
}

func TestExecuteTruncated(t *testing.T) {
	exec := New(fixtureStore(), fixtureTotals(), Options{})

	res, err := exec.Execute(context.Background(), "i (huset hytta hagen)", nobParams())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Terms[0].Candidates)
	require.Len(t, res.Series, 2, "the candidate without rows is omitted")
	assert.Equal(t, "i huset", res.Series[0].Key)
	assert.Equal(t, "i hytta", res.Series[1].Key)
}

func TestExecuteAbsolute(t *testing.T) {
	exec := New(fixtureStore(), fixtureTotals(), Options{})
	p := nobParams()
	p.FreqMode = model.FreqAbsolute

	res, err := exec.Execute(context.Background(), "hus", p)
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: 1900, Y: 15, F: 15}, res.Series[0].Values[0])
}

func TestExecuteIsDeterministic(t *testing.T) {
	exec := New(fixtureStore(), fixtureTotals(), Options{})
	first, err := exec.Execute(context.Background(), "hus,hus*,(i på) hus", nobParams())
	require.NoError(t, err)
	second, err := exec.Execute(context.Background(), "hus,hus*,(i på) hus", nobParams())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExecuteEmptyQueryOpensNoSession(t *testing.T) {
	st := fixtureStore()
	exec := New(st, fixtureTotals(), Options{})

	res, err := exec.Execute(context.Background(), " , ,", model.DefaultParams())
	require.NoError(t, err)
	assert.NotNil(t, res.Series)
	assert.Empty(t, res.Series)
	opened, _ := st.Sessions()
	assert.Zero(t, opened)
}

func TestExecuteStoreFailureAbortsQuery(t *testing.T) {
	st := fixtureStore()
	st.Err = errors.New("connection reset")
	exec := New(st, fixtureTotals(), Options{})

	res, err := exec.Execute(context.Background(), "hus,huset", nobParams())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, st.Err)

	opened, closed := st.Sessions()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed, "the session is released on failure")
}

func TestExecuteOneSessionPerRequest(t *testing.T) {
	st := fixtureStore()
	exec := New(st, fixtureTotals(), Options{})

	_, err := exec.Execute(context.Background(), "hus,i huset,hus*", nobParams())
	require.NoError(t, err)
	opened, closed := st.Sessions()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestExecuteRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	exec := New(fixtureStore(), fixtureTotals(), Options{Metrics: m, LogSpans: true})

	_, err := exec.Execute(context.Background(), "hus,hus*", nobParams())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TermsTotal.WithLabelValues("single")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TermsTotal.WithLabelValues("wildcard")))
	// "hus" plus ten resolved matches use the language-leading path, the
	// pattern lookup uses the composite one
	assert.Equal(t, 11.0, testutil.ToFloat64(m.StoreLookupsTotal.WithLabelValues("bok", "unigram_lff")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreLookupsTotal.WithLabelValues("bok", "unigram_ff")))
}

func TestExecuteStoredMarkerIsMatchedVerbatim(t *testing.T) {
	st := storetest.New(
		bok(model.LangNob, model.Blob{1900: 100}, "%"),
		bok(model.LangNob, model.Blob{1900: 7}, "hus"),
	)
	exec := New(st, fixtureTotals(), Options{})
	p := nobParams()
	p.FreqMode = model.FreqAbsolute

	res, err := exec.Execute(context.Background(), "*", p)
	require.NoError(t, err)

	require.Len(t, res.Series, 2)
	assert.Equal(t, "%", res.Series[0].Key)
	assert.Equal(t, []model.Point{{X: 1900, Y: 100, F: 100}}, res.Series[0].Values)
	assert.Equal(t, "hus", res.Series[1].Key)
	assert.Equal(t, []model.Point{{X: 1900, Y: 7, F: 7}}, res.Series[1].Values)

	lookups := st.Lookups()
	require.Len(t, lookups, 3)
	assert.Equal(t, model.OpEq, lookups[1].Predicates[0].Op)
	assert.Equal(t, []string{"%"}, lookups[1].Predicates[0].Values)
}
