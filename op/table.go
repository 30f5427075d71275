package op

import (
	"database/sql"
	"fmt"
	"iter"

	"github.com/nickyhof/lildb/db"
	"github.com/nickyhof/lildb/stmt"
)

// Table is the accessor for one table. It carries the column and key
// layout discovered from the engine catalog and turns method calls into
// statements. Accessors are cheap handles and safe to keep around for
// the lifetime of the database.
type Table struct {
	name    string
	engine  *db.Engine
	columns []string
	key     []string
	records bool
}

// NewTable builds the accessor for an existing table, loading its
// column and key layout from the engine catalog. When records is true
// fetched rows use the fixed-field representation instead of maps.
func NewTable(name string, engine *db.Engine, records bool) (*Table, error) {
	columns, key, err := engine.Columns(name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &stmt.QueryError{Reason: fmt.Sprintf("table %q does not exist", name)}
	}
	return &Table{
		name:    name,
		engine:  engine,
		columns: columns,
		key:     key,
		records: records,
	}, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns the column names in catalog order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// PrimaryKey returns the key column names, empty when the table has no
// primary key.
func (t *Table) PrimaryKey() []string {
	out := make([]string, len(t.key))
	copy(out, t.key)
	return out
}

func (t *Table) dialect() stmt.Dialect { return t.engine.Dialect() }

// Select returns every row matching the filter, in engine-native order.
func (t *Table) Select(f Filter) ([]Row, error) {
	return t.SelectN(f, 0)
}

// SelectN is Select limited to the first size rows. A size of zero or
// less means no limit.
func (t *Table) SelectN(f Filter, size int) ([]Row, error) {
	return t.run(stmt.Query{Table: t.name, Columns: t.columns, Filter: f, Limit: size})
}

// All returns every row of the table.
func (t *Table) All() ([]Row, error) {
	return t.Select(All())
}

// Get returns the first row matching the filter and whether one was
// found.
func (t *Table) Get(f Filter) (Row, bool, error) {
	rows, err := t.SelectN(f, 1)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Insert writes the given rows, one statement per row inside one
// transaction. If any row fails the whole batch rolls back and nothing
// is persisted.
func (t *Table) Insert(rows ...map[string]any) error {
	if len(rows) == 0 {
		return &stmt.QueryError{Reason: "insert with no rows"}
	}
	stmts := make([]stmt.Stmt, 0, len(rows))
	for _, values := range rows {
		s, err := stmt.InsertStmt(t.dialect(), t.name, values)
		if err != nil {
			return err
		}
		stmts = append(stmts, s)
	}
	_, err := t.engine.ExecAll(t.name, "insert", stmts)
	return err
}

// Update applies the given values to every row matching the filter and
// reports how many rows matched. An empty filter updates the whole
// table.
func (t *Table) Update(values map[string]any, f Filter) (int64, error) {
	s, err := stmt.UpdateStmt(t.dialect(), t.name, values, f)
	if err != nil {
		return 0, err
	}
	return t.engine.Exec(t.name, "update", s)
}

// Delete removes every row matching the filter and reports how many
// rows matched. An empty filter empties the table.
func (t *Table) Delete(f Filter) (int64, error) {
	s, err := stmt.DeleteStmt(t.dialect(), t.name, f)
	if err != nil {
		return 0, err
	}
	return t.engine.Exec(t.name, "delete", s)
}

// ByKey fetches the row whose primary key equals the given values, one
// per key column in key order.
func (t *Table) ByKey(key ...any) (Row, bool, error) {
	if len(t.key) == 0 {
		return nil, false, &stmt.QueryError{Reason: fmt.Sprintf("table %q has no primary key", t.name)}
	}
	if len(key) != len(t.key) {
		return nil, false, &stmt.QueryError{
			Reason: fmt.Sprintf("table %q key has %d columns, got %d values", t.name, len(t.key), len(key)),
		}
	}
	conds := make([]Cond, len(key))
	for i, v := range key {
		conds[i] = Eq(t.key[i], v)
	}
	return t.Get(And(conds...))
}

// At fetches the row at the given 1-based position of the unfiltered
// table, in engine-native order.
func (t *Table) At(pos int) (Row, bool, error) {
	if pos < 1 {
		return nil, false, &stmt.QueryError{Reason: fmt.Sprintf("position %d out of range, positions start at 1", pos)}
	}
	rows, err := t.run(stmt.Query{Table: t.name, Columns: t.columns, Limit: 1, Offset: pos - 1})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Lookup is the forgiving dual of ByKey and At. It tries the key as a
// single-column primary key value first, then, when the key is an
// integer, as a 1-based position. Prefer the explicit methods in new
// code.
func (t *Table) Lookup(key any) (Row, bool, error) {
	if len(t.key) == 1 {
		row, ok, err := t.ByKey(key)
		if err != nil || ok {
			return row, ok, err
		}
	}
	pos, ok := asPosition(key)
	if !ok {
		return nil, false, nil
	}
	return t.At(pos)
}

func asPosition(key any) (int, bool) {
	switch v := key.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	}
	return 0, false
}

// Scan iterates lazily over the whole table in engine-native order,
// one row at a time. Iteration stops at the first error.
func (t *Table) Scan() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		s, err := stmt.Query{Table: t.name, Columns: t.columns}.Render(t.dialect())
		if err != nil {
			yield(nil, err)
			return
		}
		rows, err := t.engine.Query(t.name, "scan", s)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			row, err := t.scanRow(t.columns, rows)
			if !yield(row, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Count reports how many rows match the filter.
func (t *Table) Count(f Filter) (int, error) {
	s, err := stmt.Query{Table: t.name, Filter: f}.RenderCount(t.dialect())
	if err != nil {
		return 0, err
	}
	var n int
	if err := t.engine.QueryValue(t.name, "count", s, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Drop removes the table from the engine. The accessor is dead
// afterwards.
func (t *Table) Drop() error {
	_, err := t.engine.Exec(t.name, "drop table", stmt.DropTableStmt(t.dialect(), t.name))
	return err
}

// Query starts a select builder on this table.
func (t *Table) Query() *Query {
	return &Query{table: t}
}

// run renders a select and materializes the result.
func (t *Table) run(q stmt.Query) ([]Row, error) {
	columns := q.Columns
	if len(columns) == 0 {
		columns = t.columns
	}
	s, err := q.Render(t.dialect())
	if err != nil {
		return nil, err
	}
	rows, err := t.engine.Query(t.name, "select", s)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := t.scanRow(columns, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (t *Table) scanRow(columns []string, rows *sql.Rows) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, &db.EngineError{Table: t.name, Op: "scan", Err: err}
	}
	return newRow(t, columns, values), nil
}
