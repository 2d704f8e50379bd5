// Package planner chooses the access path a lookup should use. The choice
// only affects lookup speed on the frequency store, never which rows match.
package planner

import (
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

// Plan picks an access path for the given per-position predicates, one per
// n-gram position in order.
//
// Every equality position contributes its letter tag (f, s, t) so an
// all-equality lookup gets the narrowest path covering exactly those
// positions. A pattern whose literal part is longer than one character
// cannot use a prefix-restricted path, so it switches to the full composite
// path spanning every position. Bare patterns contribute no letter.
//
// Equality-only lookups on the books corpus use the language-leading
// variant of the path, since they always carry a language predicate.
func Plan(corpus model.Corpus, positions []model.Predicate) model.AccessPath {
	path := model.AccessPath{
		Corpus: corpus,
		Length: len(positions),
	}

	var tag strings.Builder
	allEquality := true
	for i, p := range positions {
		if i >= len(model.PositionFields) {
			break
		}
		if p.Op != model.OpLike {
			tag.WriteString(model.PositionFields[i].Letter())
			continue
		}
		allEquality = false
		if len(p.Values) > 0 && significant(p.Values[0]) > 1 {
			path.Tag = composite(len(positions))
			return path
		}
	}

	path.Tag = tag.String()
	if path.Tag == "" {
		path.Tag = composite(len(positions))
	}
	path.LangLeading = allEquality && corpus == model.CorpusBooks
	return path
}

func composite(length int) string {
	var b strings.Builder
	for i := 0; i < length && i < len(model.PositionFields); i++ {
		b.WriteString(model.PositionFields[i].Letter())
	}
	return b.String()
}

// significant counts the characters of a pattern other than wildcards and
// escapes.
func significant(pattern string) int {
	pattern = strings.ReplaceAll(pattern, model.WildcardMarker, "")
	pattern = strings.ReplaceAll(pattern, `\`, "")
	return utf8.RuneCountInString(pattern)
}
