package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/ngram-viewer/internal/ngram/model"
)

// Dialect renders a lookup's predicate tree into native query text and its
// bind arguments. The argument order always equals Lookup.Args.
type Dialect interface {
	Name() string
	FrequencyQuery(lookup model.Lookup) (string, []any)
	TopQuery(lookup model.Lookup, limit int) (string, []any)
}

var positionColumns = [...]string{"first", "second", "third"}

func column(f model.Field) string {
	switch f {
	case model.FieldFirst, model.FieldSecond, model.FieldThird:
		return positionColumns[f]
	case model.FieldLang:
		return "lang"
	default:
		return "counts"
	}
}

// whereBuilder renders predicates with a dialect specific placeholder and
// year test.
type whereBuilder struct {
	placeholder func(n int) string
	hasYear     func(col, ph string) string
	args        []any
}

func (w *whereBuilder) next(v string) string {
	w.args = append(w.args, v)
	return w.placeholder(len(w.args))
}

func (w *whereBuilder) render(preds []model.Predicate) string {
	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		col := column(p.Field)
		switch {
		case p.Field == model.FieldYear:
			clauses = append(clauses, w.hasYear(col, w.next(p.Values[0])))
		case p.Op == model.OpLike:
			clauses = append(clauses, fmt.Sprintf("%s LIKE %s", col, w.next(p.Values[0])))
		case p.Op == model.OpIn && len(p.Values) > 1:
			phs := make([]string, len(p.Values))
			for i, v := range p.Values {
				phs[i] = w.next(v)
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, strings.Join(phs, ", ")))
		default:
			clauses = append(clauses, fmt.Sprintf("%s = %s", col, w.next(p.Values[0])))
		}
	}
	return strings.Join(clauses, " AND ")
}

func selectColumns(lookup model.Lookup) string {
	n := lookup.Path.Length
	if n > len(positionColumns) {
		n = len(positionColumns)
	}
	return strings.Join(positionColumns[:n], ", ")
}

func table(lookup model.Lookup) string {
	return string(lookup.Path.Corpus) + "." + lookup.Path.Table()
}

// Postgres renders for PostgreSQL with pg_hint_plan installed; without the
// extension the hint is an ordinary comment.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (d Postgres) builder() *whereBuilder {
	return &whereBuilder{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		hasYear:     func(col, ph string) string { return fmt.Sprintf("jsonb_exists(%s, %s)", col, ph) },
	}
}

func (d Postgres) hint(lookup model.Lookup) string {
	return fmt.Sprintf("/*+ IndexScan(%s %s) */", lookup.Path.Table(), lookup.Path.Name())
}

func (d Postgres) FrequencyQuery(lookup model.Lookup) (string, []any) {
	w := d.builder()
	where := w.render(lookup.Predicates)
	return fmt.Sprintf("%s SELECT counts FROM %s WHERE %s", d.hint(lookup), table(lookup), where), w.args
}

func (d Postgres) TopQuery(lookup model.Lookup, limit int) (string, []any) {
	w := d.builder()
	where := w.render(lookup.Predicates)
	return fmt.Sprintf("%s SELECT %s FROM %s WHERE %s ORDER BY freq DESC LIMIT %d",
		d.hint(lookup), selectColumns(lookup), table(lookup), where, limit), w.args
}

// ClickHouse renders for ClickHouse, where each access path is a projection
// of the corpus table and counts is a JSON string column.
type ClickHouse struct{}

func (ClickHouse) Name() string { return "clickhouse" }

func (d ClickHouse) builder() *whereBuilder {
	return &whereBuilder{
		placeholder: func(int) string { return "?" },
		hasYear:     func(col, ph string) string { return fmt.Sprintf("JSONHas(%s, %s)", col, ph) },
	}
}

func (d ClickHouse) settings(lookup model.Lookup) string {
	return fmt.Sprintf("SETTINGS preferred_optimize_projection_name = '%s'", lookup.Path.Name())
}

func (d ClickHouse) FrequencyQuery(lookup model.Lookup) (string, []any) {
	w := d.builder()
	where := w.render(lookup.Predicates)
	return fmt.Sprintf("SELECT counts FROM %s WHERE %s %s", table(lookup), where, d.settings(lookup)), w.args
}

func (d ClickHouse) TopQuery(lookup model.Lookup, limit int) (string, []any) {
	w := d.builder()
	where := w.render(lookup.Predicates)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY freq DESC LIMIT %d %s",
		selectColumns(lookup), table(lookup), where, limit, d.settings(lookup)), w.args
}
