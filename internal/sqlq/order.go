package sqlq

import (
	"strings"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortColumn describes one allowed sort target. Expr is either a stored
// column or the alias of a derived table's output; the resolver never inlines
// subquery logic itself.
type SortColumn struct {
	Expr     string
	Nullable bool
	// DateText marks a column holding date-like text that must be compared
	// chronologically, never lexically.
	DateText bool
}

// SortConfig is a per-entity sorting contract: the allowed keys, the default
// key, and the default direction.
type SortConfig struct {
	Default      string
	DefaultOrder string
	Columns      map[string]SortColumn
}

// Allows reports whether key is on the entity's allow-list. The HTTP layer
// uses this to narrow raw input before calling into the store.
func (c SortConfig) Allows(key string) bool {
	_, ok := c.Columns[key]
	return ok
}

// OrderBy resolves a sort key and direction to one order by clause. An
// unknown or absent key falls back to the entity default; there is never "no
// order", since unordered pagination is non-deterministic. Rows with a null
// sort value always sort after non-null rows, in both directions.
func (c SortConfig) OrderBy(key, order string) string {
	col, ok := c.Columns[key]
	if !ok {
		col = c.Columns[c.Default]
		if order == "" {
			order = c.DefaultOrder
		}
	}

	dir := OrderAsc
	if strings.EqualFold(order, OrderDesc) {
		dir = OrderDesc
	}

	expr := col.Expr
	if col.DateText {
		expr = "datetime(" + expr + ")"
	}

	var b strings.Builder
	b.WriteString("order by ")

	if col.Nullable {
		b.WriteString("case when ")
		b.WriteString(expr)
		b.WriteString(" is null then 1 else 0 end, ")
	}

	b.WriteString(expr)
	b.WriteString(" ")
	b.WriteString(dir)

	return b.String()
}
