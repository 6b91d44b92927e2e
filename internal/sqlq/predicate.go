package sqlq

import (
	"strings"
)

type predicateKind int

const (
	kindNone predicateKind = iota
	kindEquals
	kindIn
	kindSearch
	kindBound
	kindExpr
)

// Predicate is one tagged filter node. The zero value means "no condition";
// it is skipped entirely at render time rather than emitted as a tautology.
type Predicate struct {
	kind    predicateKind
	column  string
	op      string
	frag    string
	columns []string
	values  []interface{}
}

func (p Predicate) IsZero() bool {
	return p.kind == kindNone
}

// None is the absent filter.
func None() Predicate {
	return Predicate{}
}

func Equals(column string, value interface{}) Predicate {
	return Predicate{kind: kindEquals, column: column, values: []interface{}{value}}
}

// In matches column against a candidate set. An empty set means the filter is
// omitted entirely, never an unsatisfiable "in ()".
func In(column string, values ...interface{}) Predicate {
	if len(values) == 0 {
		return Predicate{}
	}

	return Predicate{kind: kindIn, column: column, values: values}
}

func InStrings(column string, values []string) Predicate {
	a := make([]interface{}, 0, len(values))
	for _, v := range values {
		a = append(a, v)
	}

	return In(column, a...)
}

// Search is a case-insensitive substring match over the given columns, joined
// by or and wrapped in its own parens. Each column contributes one %term%
// parameter.
func Search(term string, columns ...string) Predicate {
	if term == "" || len(columns) == 0 {
		return Predicate{}
	}

	values := make([]interface{}, 0, len(columns))
	for range columns {
		values = append(values, "%"+strings.ToLower(term)+"%")
	}

	return Predicate{kind: kindSearch, columns: columns, values: values}
}

// OnOrAfter is an inclusive lower bound on the date-truncated column.
func OnOrAfter(column string, value interface{}) Predicate {
	return Predicate{kind: kindBound, column: column, op: ">=", values: []interface{}{value}}
}

// OnOrBefore is an inclusive upper bound on the date-truncated column.
func OnOrBefore(column string, value interface{}) Predicate {
	return Predicate{kind: kindBound, column: column, op: "<=", values: []interface{}{value}}
}

// Expr is an opaque boolean fragment, used for derived-status conditions over
// join nullability or aggregate aliases. The fragment must be a complete
// boolean expression with one ? per value.
func Expr(frag string, values ...interface{}) Predicate {
	return Predicate{kind: kindExpr, frag: frag, values: values}
}

func (p Predicate) render(b *strings.Builder, params *[]interface{}) {
	switch p.kind {
	case kindEquals:
		b.WriteString(p.column)
		b.WriteString(" = ?")
	case kindIn:
		b.WriteString(p.column)
		b.WriteString(" in (")
		for i := range p.values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
		}
		b.WriteString(")")
	case kindSearch:
		b.WriteString("(")
		for i, column := range p.columns {
			if i > 0 {
				b.WriteString(" or ")
			}
			b.WriteString("lower(")
			b.WriteString(column)
			b.WriteString(") like ?")
		}
		b.WriteString(")")
	case kindBound:
		b.WriteString("date(")
		b.WriteString(p.column)
		b.WriteString(") ")
		b.WriteString(p.op)
		b.WriteString(" date(?)")
	case kindExpr:
		b.WriteString(p.frag)
	}

	*params = append(*params, p.values...)
}

// Where renders the conjunction of the given predicates in order, skipping
// absent ones. Returns an empty string when nothing remains.
func Where(preds []Predicate) (string, []interface{}) {
	var b strings.Builder
	var params []interface{}

	for _, p := range preds {
		if p.IsZero() {
			continue
		}

		if b.Len() == 0 {
			b.WriteString("where ")
		} else {
			b.WriteString(" and ")
		}

		p.render(&b, &params)
	}

	return b.String(), params
}
