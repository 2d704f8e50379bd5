// Package tokenizer splits raw query text into bounded term strings and
// splits a term into word tokens. Parenthesised alternative groups are kept
// whole so the interpreter can expand them.
package tokenizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

var (
	emptySeparators = regexp.MustCompile(`,(\s*,)+`)
	spaceAroundPlus = regexp.MustCompile(`\s*\+\s*`)
	wordPattern     = regexp.MustCompile(`[^\s(]+|\([^)]*\)`)
)

// Split turns the raw query into at most limits.MaxTerms terms. The text is
// cut to limits.MaxChars characters first, commas inside double quotes do
// not separate terms, and only the first limits.MaxWildcards terms carrying
// a '*' keep it as a wildcard; later ones lose the '*' entirely.
func Split(query string, limits model.Limits) []string {
	query = norm.NFC.String(query)
	// A literal marker would bypass the wildcard budget.
	query = strings.ReplaceAll(query, model.WildcardMarker, "")
	query = truncateRunes(query, limits.MaxChars)
	query = emptySeparators.ReplaceAllString(query, ",")

	raw := splitUnquoted(query)
	if len(raw) > limits.MaxTerms {
		raw = raw[:limits.MaxTerms]
	}

	terms := make([]string, 0, len(raw))
	wildcards := 0
	for _, term := range raw {
		if strings.Contains(term, "*") {
			if wildcards < limits.MaxWildcards {
				wildcards++
				term = strings.ReplaceAll(term, "*", model.WildcardMarker)
			} else {
				term = strings.ReplaceAll(term, "*", "")
			}
		}
		term = strings.TrimSpace(term)
		term = unquote(term)
		if strings.Contains(term, "+") {
			term = spaceAroundPlus.ReplaceAllString(term, "+")
		}
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// Words splits a term on whitespace, keeping "(a b)" groups as one token.
func Words(term string) []string {
	return wordPattern.FindAllString(term, -1)
}

// IsGroup reports whether tok is a parenthesised alternative group.
func IsGroup(tok string) bool {
	return len(tok) >= 2 && strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")")
}

// Alternatives strips a group's parentheses and returns at most max
// whitespace separated alternatives.
func Alternatives(group string, max int) []string {
	inner := strings.TrimSuffix(strings.TrimPrefix(group, "("), ")")
	alts := strings.Fields(inner)
	if len(alts) > max {
		alts = alts[:max]
	}
	return alts
}

func splitUnquoted(s string) []string {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		openAt  int
	)
	for _, r := range s {
		switch {
		case r == '"':
			if !quoted {
				openAt = current.Len()
			}
			quoted = !quoted
			current.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	last := current.String()
	if quoted {
		// An unclosed quote does not protect the commas after it.
		tail := strings.Split(last[openAt:], ",")
		parts = append(parts, last[:openAt]+tail[0])
		parts = append(parts, tail[1:]...)
	} else {
		parts = append(parts, last)
	}

	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// unquote turns a fully quoted term back into its content, so `","` is a
// search for the comma itself.
func unquote(term string) string {
	if len(term) >= 2 && strings.HasPrefix(term, `"`) && strings.HasSuffix(term, `"`) {
		return strings.TrimSpace(term[1 : len(term)-1])
	}
	return term
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
