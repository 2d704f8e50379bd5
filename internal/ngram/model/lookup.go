package model

import (
	"fmt"
	"strings"
)

// Field is a column a predicate constrains.
type Field int

const (
	FieldFirst Field = iota
	FieldSecond
	FieldThird
	FieldLang
	FieldYear
)

// PositionFields maps n-gram positions to their fields.
var PositionFields = [...]Field{FieldFirst, FieldSecond, FieldThird}

// Letter is the access-path tag of a position field.
func (f Field) Letter() string {
	switch f {
	case FieldFirst:
		return "f"
	case FieldSecond:
		return "s"
	case FieldThird:
		return "t"
	case FieldLang:
		return "l"
	default:
		return ""
	}
}

func (f Field) String() string {
	switch f {
	case FieldFirst:
		return "first"
	case FieldSecond:
		return "second"
	case FieldThird:
		return "third"
	case FieldLang:
		return "lang"
	case FieldYear:
		return "year"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Op is the comparison a predicate applies.
type Op int

const (
	OpEq Op = iota
	OpIn
	OpLike
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpLike:
		return "like"
	default:
		return "unknown"
	}
}

// Predicate is one typed node of a lookup's conjunction.
type Predicate struct {
	Field  Field
	Op     Op
	Values []string
}

// AccessPath names a precomputed index over one corpus table.
type AccessPath struct {
	Corpus      Corpus
	Length      int
	Tag         string
	LangLeading bool
}

var tableNames = [...]string{"unigram", "bigram", "trigram"}

// Table returns the table holding n-grams of the path's length.
func (a AccessPath) Table() string {
	if a.Length < 1 || a.Length > len(tableNames) {
		return ""
	}
	return tableNames[a.Length-1]
}

// Name is the index identifier inside the corpus namespace.
func (a AccessPath) Name() string {
	var b strings.Builder
	b.WriteString(a.Table())
	b.WriteByte('_')
	if a.LangLeading {
		b.WriteString(FieldLang.Letter())
	}
	b.WriteString(a.Tag)
	b.WriteString("f")
	return b.String()
}

// Qualified prefixes Name with the corpus namespace.
func (a AccessPath) Qualified() string {
	return string(a.Corpus) + "." + a.Name()
}

// Lookup is a fully bound request against the frequency store.
type Lookup struct {
	NGram      NGram
	Predicates []Predicate
	Path       AccessPath
	Lang       Lang
	Corpus     Corpus
	Year       int
	Label      string
}

// Args flattens the predicate values in predicate order.
func (l Lookup) Args() []any {
	var args []any
	for _, p := range l.Predicates {
		for _, v := range p.Values {
			args = append(args, v)
		}
	}
	return args
}
