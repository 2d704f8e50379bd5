// Package compiler turns a concrete n-gram and its parameters into a bound
// Lookup: a typed predicate conjunction plus the access path to run it on.
// Nothing here touches the frequency store.
package compiler

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/planner"
)

var patternEscaper = strings.NewReplacer(`\`, `\\`, `_`, `\_`)

// Compile builds the lookup for ng under p.
//
// Literal positions are equality tests. Without case sensitivity a literal
// matches itself and its first-character-case-swapped variant only; the
// rest of the token is compared exactly. Positions carrying the wildcard
// marker become pattern matches. The language filter exists only for the
// books corpus, and the year filter only when a year annotation is set.
func Compile(ng model.NGram, p model.Params) model.Lookup {
	return compile(ng, p, false)
}

// CompileCandidate builds the lookup for c. Literal candidates never become
// pattern matches.
func CompileCandidate(c model.Candidate) model.Lookup {
	return compile(c.NGram, c.Params, c.Literal)
}

func compile(ng model.NGram, p model.Params, literal bool) model.Lookup {
	p = p.Normalize()
	positions := make([]model.Predicate, 0, len(ng))
	for i, tok := range ng {
		if i >= len(model.PositionFields) {
			break
		}
		positions = append(positions, positionPredicate(model.PositionFields[i], tok, p.CaseSensitive, literal))
	}

	lookup := model.Lookup{
		NGram:      ng,
		Predicates: positions,
		Path:       planner.Plan(p.Corpus, positions),
		Lang:       p.Lang,
		Corpus:     p.Corpus,
		Year:       p.Year,
		Label:      ng.Label(),
	}

	if p.Corpus == model.CorpusBooks {
		if p.Lang != model.LangAll {
			lookup.Predicates = append(lookup.Predicates, model.Predicate{
				Field:  model.FieldLang,
				Op:     model.OpEq,
				Values: []string{string(p.Lang)},
			})
		} else {
			langs := make([]string, len(model.KnownLangs))
			for i, l := range model.KnownLangs {
				langs[i] = string(l)
			}
			lookup.Predicates = append(lookup.Predicates, model.Predicate{
				Field:  model.FieldLang,
				Op:     model.OpIn,
				Values: langs,
			})
		}
	}
	if p.Year != 0 {
		lookup.Predicates = append(lookup.Predicates, model.Predicate{
			Field:  model.FieldYear,
			Op:     model.OpEq,
			Values: []string{strconv.Itoa(p.Year)},
		})
	}
	return lookup
}

func positionPredicate(field model.Field, tok string, caseSensitive, literal bool) model.Predicate {
	if !literal && strings.Contains(tok, model.WildcardMarker) {
		return model.Predicate{
			Field:  field,
			Op:     model.OpLike,
			Values: []string{patternEscaper.Replace(tok)},
		}
	}
	if caseSensitive {
		return model.Predicate{Field: field, Op: model.OpEq, Values: []string{tok}}
	}
	swapped := SwapFirst(tok)
	if swapped == tok {
		return model.Predicate{Field: field, Op: model.OpEq, Values: []string{tok}}
	}
	return model.Predicate{Field: field, Op: model.OpIn, Values: []string{tok, swapped}}
}

// SwapFirst swaps the case of the first character of s.
func SwapFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	var swapped rune
	if unicode.IsUpper(r) {
		swapped = unicode.ToLower(r)
	} else {
		swapped = unicode.ToUpper(r)
	}
	return string(swapped) + s[size:]
}
