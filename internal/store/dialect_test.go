package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/compiler"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

func TestPostgresFrequencyQuery(t *testing.T) {
	lookup := compiler.Compile(model.NGram{"hus", "og"}, model.DefaultParams())
	query, args := Postgres{}.FrequencyQuery(lookup)

	assert.Equal(t,
		"/*+ IndexScan(bigram bigram_lfsf) */ SELECT counts FROM bok.bigram WHERE first IN ($1, $2) AND second IN ($3, $4) AND lang IN ($5, $6)",
		query)
	assert.Equal(t, lookup.Args(), args)
}

func TestPostgresYearAndLanguage(t *testing.T) {
	p := model.DefaultParams()
	p.CaseSensitive = true
	p.Lang = model.LangNob
	p.Year = 1910
	query, args := Postgres{}.FrequencyQuery(compiler.Compile(model.NGram{"hus"}, p))

	assert.Equal(t,
		"/*+ IndexScan(unigram unigram_lff) */ SELECT counts FROM bok.unigram WHERE first = $1 AND lang = $2 AND jsonb_exists(counts, $3)",
		query)
	assert.Equal(t, []any{"hus", "nob", "1910"}, args)
}

func TestPostgresTopQuery(t *testing.T) {
	p := model.DefaultParams()
	p.Lang = model.LangNob
	query, args := Postgres{}.TopQuery(compiler.Compile(model.NGram{"hus%"}, p), 10)

	assert.Equal(t,
		"/*+ IndexScan(unigram unigram_ff) */ SELECT first FROM bok.unigram WHERE first LIKE $1 AND lang = $2 ORDER BY freq DESC LIMIT 10",
		query)
	assert.Equal(t, []any{"hus%", "nob"}, args)
}

func TestClickHouseQueries(t *testing.T) {
	p := model.DefaultParams()
	p.Corpus = model.CorpusNewspapers
	lookup := compiler.Compile(model.NGram{"i", "hus%"}, p)

	query, args := ClickHouse{}.TopQuery(lookup, 10)
	assert.Equal(t,
		"SELECT first, second FROM avis.bigram WHERE first IN (?, ?) AND second LIKE ? ORDER BY freq DESC LIMIT 10 SETTINGS preferred_optimize_projection_name = 'bigram_fsf'",
		query)
	assert.Equal(t, []any{"i", "I", "hus%"}, args)

	p.CaseSensitive = true
	p.Year = 1950
	query, args = ClickHouse{}.FrequencyQuery(compiler.Compile(model.NGram{"hus"}, p))
	assert.Equal(t,
		"SELECT counts FROM avis.unigram WHERE first = ? AND JSONHas(counts, ?) SETTINGS preferred_optimize_projection_name = 'unigram_ff'",
		query)
	assert.Equal(t, []any{"hus", "1950"}, args)
}

func TestDecodeBlob(t *testing.T) {
	blob, err := DecodeBlob([]byte(`{"1810": 4, "1999": 12}`))
	assert.NoError(t, err)
	assert.Equal(t, model.Blob{1810: 4, 1999: 12}, blob)

	_, err = DecodeBlob([]byte(`{"year": 4}`))
	assert.Error(t, err)

	_, err = DecodeBlob([]byte(`not json`))
	assert.Error(t, err)
}
