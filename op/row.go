package op

import (
	"fmt"

	"github.com/nickyhof/lildb/db"
	"github.com/nickyhof/lildb/stmt"
)

// Row is one materialized record. It remembers where it came from, so a
// modified row can write itself back with Change and remove itself with
// Delete. Two representations satisfy the interface: a mapping-backed
// row (the default) and a fixed-field record enabled per database.
type Row interface {
	// Columns returns the column names of the row in select order.
	Columns() []string

	// Get returns the value of a column and whether the column exists.
	Get(column string) (any, bool)

	// Set stages a new value for a column. The table is not touched
	// until Change is called.
	Set(column string, value any) error

	// Map returns a copy of the row as a column-to-value mapping.
	Map() map[string]any

	// Change writes every current field value back to the matching
	// table row. It is a no-op when nothing was staged with Set, and
	// fails with db.ErrNoRowsAffected when the row no longer exists.
	Change() error

	// Delete removes the matching table row. Deleting a row that is
	// already gone is not an error.
	Delete() error
}

// rowCore carries what both representations share: the owning table,
// the select-order columns, the identity captured at fetch time, and
// the set of columns staged for writeback.
type rowCore struct {
	table    *Table
	columns  []string
	identity Filter
	staged   map[string]bool
}

// newRow materializes one scanned record in the representation the
// owning table was configured with.
func newRow(t *Table, columns []string, values []any) Row {
	if t.records {
		r := &RecRow{values: values}
		r.init(t, columns, r.get)
		return r
	}
	m := make(map[string]any, len(columns))
	for i, c := range columns {
		m[c] = values[i]
	}
	r := &MapRow{values: m}
	r.init(t, columns, r.get)
	return r
}

func (c *rowCore) init(t *Table, columns []string, get func(string) any) {
	c.table = t
	c.columns = columns
	c.staged = make(map[string]bool)
	c.identity = captureIdentity(t, columns, get)
}

// captureIdentity builds the filter that pins this row in the table.
// When every primary key column was fetched the key values identify the
// row; otherwise all fetched values do.
func captureIdentity(t *Table, columns []string, get func(string) any) Filter {
	keys := t.key
	if len(keys) == 0 || !containsAll(columns, keys) {
		keys = columns
	}
	conds := make([]Cond, len(keys))
	for i, k := range keys {
		conds[i] = Eq(k, get(k))
	}
	return And(conds...)
}

func containsAll(haystack, needles []string) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (c *rowCore) columnsCopy() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// change writes the row back. All current field values are written, not
// just the staged ones, so the table row ends up equal to the in-memory
// row.
func (c *rowCore) change(get func(string) any) error {
	if len(c.staged) == 0 {
		return nil
	}
	values := make(map[string]any, len(c.columns))
	for _, col := range c.columns {
		values[col] = get(col)
	}
	s, err := stmt.UpdateStmt(c.table.dialect(), c.table.name, values, c.identity)
	if err != nil {
		return err
	}
	affected, err := c.table.engine.Exec(c.table.name, "change", s)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("change %s: %w", c.table.name, db.ErrNoRowsAffected)
	}
	c.identity = captureIdentity(c.table, c.columns, get)
	c.staged = make(map[string]bool)
	return nil
}

// delete removes the row from the table. A row that was already deleted
// matches nothing, which is fine.
func (c *rowCore) delete() error {
	s, err := stmt.DeleteStmt(c.table.dialect(), c.table.name, c.identity)
	if err != nil {
		return err
	}
	_, err = c.table.engine.Exec(c.table.name, "delete", s)
	return err
}

func (c *rowCore) unknownColumn(column string) error {
	return &stmt.QueryError{Reason: fmt.Sprintf("column %q is not part of the row", column)}
}

// MapRow is the mapping-backed row representation.
type MapRow struct {
	rowCore
	values map[string]any
}

func (r *MapRow) get(column string) any { return r.values[column] }

func (r *MapRow) Columns() []string { return r.columnsCopy() }

func (r *MapRow) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

func (r *MapRow) Set(column string, value any) error {
	if _, ok := r.values[column]; !ok {
		return r.unknownColumn(column)
	}
	r.values[column] = value
	r.staged[column] = true
	return nil
}

func (r *MapRow) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func (r *MapRow) Change() error { return r.change(r.get) }

func (r *MapRow) Delete() error { return r.delete() }

// RecRow is the fixed-field row representation. Values are kept in a
// slice aligned with the select-order columns, which avoids one map
// allocation per row on large scans.
type RecRow struct {
	rowCore
	values []any
}

func (r *RecRow) index(column string) int {
	for i, c := range r.columns {
		if c == column {
			return i
		}
	}
	return -1
}

func (r *RecRow) get(column string) any {
	if i := r.index(column); i >= 0 {
		return r.values[i]
	}
	return nil
}

func (r *RecRow) Columns() []string { return r.columnsCopy() }

func (r *RecRow) Get(column string) (any, bool) {
	i := r.index(column)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

func (r *RecRow) Set(column string, value any) error {
	i := r.index(column)
	if i < 0 {
		return r.unknownColumn(column)
	}
	r.values[i] = value
	r.staged[column] = true
	return nil
}

// Values returns the row values in select order.
func (r *RecRow) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

func (r *RecRow) Map() map[string]any {
	out := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		out[c] = r.values[i]
	}
	return out
}

func (r *RecRow) Change() error { return r.change(r.get) }

func (r *RecRow) Delete() error { return r.delete() }
