// Package totals holds the per corpus, language and year token totals that
// relative frequencies are divided by. The table is loaded once at startup
// and never written afterwards, so it is shared across requests without
// locking.
package totals

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

// Key identifies one totals series.
type Key struct {
	Corpus model.Corpus
	Lang   model.Lang
}

func (k Key) String() string {
	return string(k.Corpus) + ":" + string(k.Lang)
}

// YearlyTotals is an immutable corpus → language → year → total table.
type YearlyTotals struct {
	series map[Key]map[int]int64
}

// New copies data into a YearlyTotals.
func New(data map[Key]map[int]int64) *YearlyTotals {
	t := &YearlyTotals{series: make(map[Key]map[int]int64, len(data))}
	for k, years := range data {
		cp := make(map[int]int64, len(years))
		for y, n := range years {
			cp[y] = n
		}
		t.series[k] = cp
	}
	return t
}

// Total returns the total for one year. ok is false when the year or the
// series is missing.
func (t *YearlyTotals) Total(corpus model.Corpus, lang model.Lang, year int) (int64, bool) {
	years, ok := t.series[Key{corpus, lang}]
	if !ok {
		return 0, false
	}
	n, ok := years[year]
	return n, ok
}

// Sum adds up the listed series year by year. Duplicate keys are counted
// once.
func (t *YearlyTotals) Sum(keys []Key) map[int]int64 {
	sum := make(map[int]int64)
	seen := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		for y, n := range t.series[k] {
			sum[y] += n
		}
	}
	return sum
}

// Has reports whether a series for the key was loaded.
func (t *YearlyTotals) Has(k Key) bool {
	_, ok := t.series[k]
	return ok
}

// Keys lists the loaded series in a stable order.
func (t *YearlyTotals) Keys() []Key {
	keys := make([]Key, 0, len(t.series))
	for k := range t.series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Len is the number of loaded series.
func (t *YearlyTotals) Len() int {
	return len(t.series)
}

// Decode reads the {"corpus": {"lang": {"year": total}}} document.
func Decode(r io.Reader) (*YearlyTotals, error) {
	var doc map[string]map[string]map[string]int64
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding totals: %w", err)
	}

	data := make(map[Key]map[int]int64)
	for corpus, langs := range doc {
		for lang, years := range langs {
			parsed, err := parseYears(years)
			if err != nil {
				return nil, fmt.Errorf("totals for %s:%s: %w", corpus, lang, err)
			}
			data[Key{model.Corpus(corpus), model.Lang(lang)}] = parsed
		}
	}
	return &YearlyTotals{series: data}, nil
}

func parseYears(years map[string]int64) (map[int]int64, error) {
	out := make(map[int]int64, len(years))
	for key, n := range years {
		y, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", key)
		}
		out[y] = n
	}
	return out, nil
}
