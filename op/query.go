package op

import "github.com/nickyhof/lildb/stmt"

// Query accumulates select clauses and runs them on demand. Builders
// are single-use value holders; each finisher renders and executes a
// fresh statement.
type Query struct {
	table  *Table
	fields []string
	filter Filter
	raw    string
	args   []any
	order  []stmt.Order
	limit  int
	offset int
}

// Fields restricts the select to the given columns. Rows fetched from a
// restricted select only carry those columns.
func (q *Query) Fields(columns ...string) *Query {
	q.fields = columns
	return q
}

// Where sets the filter. A later call replaces an earlier one.
func (q *Query) Where(f Filter) *Query {
	q.filter = f
	return q
}

// WhereRaw sets a raw condition with positional placeholders. It is
// combined with the Where filter when both are present.
func (q *Query) WhereRaw(cond string, args ...any) *Query {
	q.raw = cond
	q.args = args
	return q
}

// OrderBy appends an ascending sort key.
func (q *Query) OrderBy(column string) *Query {
	q.order = append(q.order, stmt.Order{Column: column})
	return q
}

// OrderByDesc appends a descending sort key.
func (q *Query) OrderByDesc(column string) *Query {
	q.order = append(q.order, stmt.Order{Column: column, Desc: true})
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset skips the first n rows. It only takes effect together with
// Limit.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

func (q *Query) build() stmt.Query {
	columns := q.fields
	if len(columns) == 0 {
		columns = q.table.columns
	}
	return stmt.Query{
		Table:   q.table.name,
		Columns: columns,
		Filter:  q.filter,
		Raw:     q.raw,
		RawArgs: q.args,
		Order:   q.order,
		Limit:   q.limit,
		Offset:  q.offset,
	}
}

// All runs the select and returns every matching row.
func (q *Query) All() ([]Row, error) {
	return q.table.run(q.build())
}

// First runs the select limited to one row and reports whether a row
// was found.
func (q *Query) First() (Row, bool, error) {
	b := q.build()
	b.Limit = 1
	rows, err := q.table.run(b)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Exists reports whether at least one row matches.
func (q *Query) Exists() (bool, error) {
	s, err := q.build().RenderExists(q.table.dialect())
	if err != nil {
		return false, err
	}
	// EXISTS comes back as an integer or a boolean depending on the
	// engine.
	var v any
	if err := q.table.engine.QueryValue(q.table.name, "exists", s, &v); err != nil {
		return false, err
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	}
	return false, nil
}

// Count reports how many rows match.
func (q *Query) Count() (int, error) {
	s, err := q.build().RenderCount(q.table.dialect())
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.table.engine.QueryValue(q.table.name, "count", s, &n); err != nil {
		return 0, err
	}
	return n, nil
}
