package model

import "strings"

// WildcardMarker is the store's multi-character wildcard.
const WildcardMarker = "%"

// NGram is an ordered sequence of one to three literal or wildcard tokens.
type NGram []string

// Label is the space-joined form used as the series key.
func (n NGram) Label() string {
	return strings.Join(n, " ")
}

// HasWildcard reports whether any position carries the wildcard marker.
func (n NGram) HasWildcard() bool {
	for _, tok := range n {
		if strings.Contains(tok, WildcardMarker) {
			return true
		}
	}
	return false
}

// Kind classifies how a term expands into candidates and how their results
// are merged.
type Kind int

const (
	KindSingle Kind = iota
	KindAggregate
	KindWildcard
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindAggregate:
		return "aggregate"
	case KindWildcard:
		return "wildcard"
	case KindTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Candidate is one concrete n-gram together with the parameters it is
// looked up with. A Literal candidate came back from the store and is
// matched verbatim, even when a token contains the wildcard marker.
type Candidate struct {
	NGram   NGram
	Params  Params
	Literal bool
}

// ParsedTerm is the interpreted form of a single query term.
type ParsedTerm struct {
	Raw        string
	Kind       Kind
	Candidates []Candidate
}

// Labels returns the candidate labels in order.
func (t ParsedTerm) Labels() []string {
	labels := make([]string, len(t.Candidates))
	for i, c := range t.Candidates {
		labels[i] = c.NGram.Label()
	}
	return labels
}
