// Package model holds the value types shared by every stage of the n-gram
// query pipeline: request parameters, n-grams, the typed predicate tree a
// lookup is compiled into, and the frequency series produced at the end.
package model

import (
	"regexp"
	"strconv"
)

// Lang is a language code of the books corpus.
type Lang string

const (
	LangAll Lang = "all"
	LangNob Lang = "nob"
	LangNno Lang = "nno"
)

// KnownLangs are the concrete language tags stored in the books corpus.
var KnownLangs = []Lang{LangNob, LangNno}

// ParseLang reports whether s is exactly one of all, nob or nno.
func ParseLang(s string) (Lang, bool) {
	switch Lang(s) {
	case LangAll, LangNob, LangNno:
		return Lang(s), true
	}
	return "", false
}

// Corpus identifies one of the two frequency stores.
type Corpus string

const (
	CorpusBooks      Corpus = "bok"
	CorpusNewspapers Corpus = "avis"
)

// ParseCorpus reports whether s is exactly bok or avis.
func ParseCorpus(s string) (Corpus, bool) {
	switch Corpus(s) {
	case CorpusBooks, CorpusNewspapers:
		return Corpus(s), true
	}
	return "", false
}

// FreqMode selects between relative and absolute frequencies.
type FreqMode string

const (
	FreqRelative FreqMode = "rel"
	FreqAbsolute FreqMode = "abs"
)

// Params are the query parameters in effect for one term or candidate.
// Year is zero unless a year annotation was extracted.
type Params struct {
	Lang          Lang
	CaseSensitive bool
	FreqMode      FreqMode
	Corpus        Corpus
	Year          int
}

// DefaultParams returns lang=all, case-insensitive, relative, books.
func DefaultParams() Params {
	return Params{
		Lang:     LangAll,
		FreqMode: FreqRelative,
		Corpus:   CorpusBooks,
	}
}

// Normalize enforces that the newspaper corpus is never language filtered.
func (p Params) Normalize() Params {
	if p.Corpus == CorpusNewspapers {
		p.Lang = LangAll
	}
	return p
}

// Overrides is the partial set of parameters carried by a term's colon
// suffix. Nil fields leave the current value untouched.
type Overrides struct {
	Lang   *Lang
	Corpus *Corpus
	Year   *int
}

// IsZero reports whether no field is set.
func (o Overrides) IsZero() bool {
	return o.Lang == nil && o.Corpus == nil && o.Year == nil
}

var yearPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ParseSuffix matches each segment against the language, corpus and year
// patterns. Segments matching none are ignored; a later segment of the same
// type overwrites an earlier one.
func ParseSuffix(segments []string) Overrides {
	var o Overrides
	for _, seg := range segments {
		if lang, ok := ParseLang(seg); ok {
			o.Lang = &lang
			continue
		}
		if corpus, ok := ParseCorpus(seg); ok {
			o.Corpus = &corpus
			continue
		}
		if yearPattern.MatchString(seg) {
			year, _ := strconv.Atoi(seg)
			o.Year = &year
		}
	}
	return o
}

// Apply merges overrides into p, last writer wins per field. Selecting the
// newspaper corpus forces lang=all; selecting books keeps an explicit
// language annotation or, failing that, the prior language.
func (p Params) Apply(o Overrides) Params {
	if o.Lang != nil {
		p.Lang = *o.Lang
	}
	if o.Corpus != nil {
		p.Corpus = *o.Corpus
	}
	if o.Year != nil {
		p.Year = *o.Year
	}
	return p.Normalize()
}
