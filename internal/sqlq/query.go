package sqlq

import (
	"strings"
)

// Query assembles one row-fetch statement and its paired count statement from
// a shared predicate list, so the page contents and the reported total can
// never disagree.
type Query struct {
	columns    []string
	from       string
	joins      []string
	preds      []Predicate
	order      string
	page       string
	pageParams []interface{}
}

func Select(from string, columns ...string) *Query {
	return &Query{from: from, columns: columns}
}

func (q *Query) Join(join string) *Query {
	q.joins = append(q.joins, join)
	return q
}

// Where appends a predicate. Append order is render order; assemblers append
// in their documented filter order so generated SQL is deterministic.
func (q *Query) Where(p Predicate) *Query {
	q.preds = append(q.preds, p)
	return q
}

func (q *Query) OrderBy(clause string) *Query {
	q.order = clause
	return q
}

func (q *Query) Paginate(clause string, params []interface{}) *Query {
	q.page = clause
	q.pageParams = params
	return q
}

func (q *Query) base(b *strings.Builder) []interface{} {
	b.WriteString(" from ")
	b.WriteString(q.from)

	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}

	where, params := Where(q.preds)
	if where != "" {
		b.WriteString(" ")
		b.WriteString(where)
	}

	return params
}

// SQL renders the row-fetch statement and its positional parameters.
func (q *Query) SQL() (string, []interface{}) {
	var b strings.Builder

	b.WriteString("select ")
	b.WriteString(strings.Join(q.columns, ", "))

	params := q.base(&b)

	if q.order != "" {
		b.WriteString(" ")
		b.WriteString(q.order)
	}

	if q.page != "" {
		b.WriteString(" ")
		b.WriteString(q.page)
		params = append(params, q.pageParams...)
	}

	return b.String(), params
}

// CountSQL renders the paired count statement: identical joins and
// predicates, no ordering, no pagination.
func (q *Query) CountSQL() (string, []interface{}) {
	var b strings.Builder

	b.WriteString("select count(*)")

	params := q.base(&b)

	return b.String(), params
}
