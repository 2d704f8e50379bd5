// Package merger folds the frequency blobs fetched for a parsed term into
// reported series and turns raw counts into relative frequencies.
package merger

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/totals"
)

// Merger is safe for concurrent use; it only reads the totals table.
type Merger struct {
	totals  *totals.YearlyTotals
	minYear int
}

// New returns a Merger dividing by tot and dropping years before minYear.
func New(tot *totals.YearlyTotals, minYear int) *Merger {
	return &Merger{totals: tot, minYear: minYear}
}

// Merge builds the series of one term. blobs[i] holds every row fetched for
// term.Candidates[i].
//
// An aggregate term sums all of its candidates into one series divided by
// the summed totals of the distinct corpus and language pairs involved.
// Every other kind reports one series per candidate, merging only the rows
// of that candidate. Series left without any year are omitted.
func (m *Merger) Merge(term model.ParsedTerm, blobs [][]model.Blob) []model.Series {
	if len(term.Candidates) == 0 {
		return nil
	}
	if term.Kind == model.KindAggregate {
		if s, ok := m.aggregate(term.Candidates, blobs); ok {
			return []model.Series{s}
		}
		return nil
	}

	var out []model.Series
	for i, c := range term.Candidates {
		merged := make(model.Blob)
		if i < len(blobs) {
			mergeInto(merged, blobs[i], c.Params.Year)
		}
		key := totals.Key{Corpus: c.Params.Corpus, Lang: c.Params.Lang}
		s := model.Series{
			Key:    c.NGram.Label(),
			Lang:   string(c.Params.Lang),
			Corpus: string(c.Params.Corpus),
			Values: m.points(merged, c.Params.FreqMode, func(year int) (int64, bool) {
				return m.totals.Total(key.Corpus, key.Lang, year)
			}),
		}
		if len(s.Values) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func (m *Merger) aggregate(cands []model.Candidate, blobs [][]model.Blob) (model.Series, bool) {
	merged := make(model.Blob)
	labels := make([]string, 0, len(cands))
	var (
		keys    []totals.Key
		langs   []string
		corpora []string
	)
	for i, c := range cands {
		if i < len(blobs) {
			mergeInto(merged, blobs[i], c.Params.Year)
		}
		labels = append(labels, c.NGram.Label())
		keys = append(keys, totals.Key{Corpus: c.Params.Corpus, Lang: c.Params.Lang})
		langs = appendDistinct(langs, string(c.Params.Lang))
		corpora = appendDistinct(corpora, string(c.Params.Corpus))
	}

	sum := m.totals.Sum(keys)
	s := model.Series{
		Key:    strings.Join(labels, "+"),
		Lang:   strings.Join(langs, "+"),
		Corpus: strings.Join(corpora, "+"),
		Values: m.points(merged, cands[0].Params.FreqMode, func(year int) (int64, bool) {
			n, ok := sum[year]
			return n, ok
		}),
	}
	return s, len(s.Values) > 0
}

// points renders a merged blob in ascending year order. Relative mode skips
// years whose total is missing or zero.
func (m *Merger) points(blob model.Blob, mode model.FreqMode, total func(year int) (int64, bool)) []model.Point {
	var pts []model.Point
	for _, year := range blob.Years() {
		if year < m.minYear {
			continue
		}
		count := blob[year]
		if mode == model.FreqAbsolute {
			pts = append(pts, model.Point{X: year, Y: float64(count), F: count})
			continue
		}
		t, ok := total(year)
		if !ok || t == 0 {
			continue
		}
		pts = append(pts, model.Point{X: year, Y: 100 * float64(count) / float64(t), F: count})
	}
	return pts
}

// mergeInto adds rows into dst, keeping only year when it is set.
func mergeInto(dst model.Blob, rows []model.Blob, year int) {
	for _, row := range rows {
		if year == 0 {
			dst.Add(row)
			continue
		}
		if n, ok := row[year]; ok {
			dst[year] += n
		}
	}
}

func appendDistinct(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
