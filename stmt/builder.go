package stmt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nickyhof/lildb/core"
)

// Dialect supplies the engine-specific pieces of statement rendering.
// Implementations live in the db package, one per supported engine.
type Dialect interface {
	// TypeName renders a column type; empty for untyped columns.
	TypeName(t core.ColumnType) string
	// AutoIncrement returns the clause appended after PRIMARY KEY for
	// auto-incremented integer keys, or an error if the engine has none.
	AutoIncrement() (string, error)
	// Quote wraps an identifier in the engine's quoting characters.
	Quote(ident string) string
}

// Stmt is rendered statement text with its bound arguments. Placeholders
// are always `?`; both supported engines accept them.
type Stmt struct {
	Text string
	Args []any
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a select against one table. It is rendered in one shot;
// nothing touches the engine until the caller executes the Stmt.
type Query struct {
	Table   string
	Columns []string // empty renders *
	Filter  Filter
	Raw     string // raw condition, ANDed after the filter terms
	RawArgs []any
	Order   []Order
	Limit   int
	Offset  int // applied only together with Limit, engine-portable form
}

// Render builds the SELECT statement.
func (q Query) Render(d Dialect) (Stmt, error) {
	where, args, err := q.whereClause(d)
	if err != nil {
		return Stmt{}, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columnList(d, q.Columns))
	b.WriteString(" FROM ")
	b.WriteString(d.Quote(q.Table))
	b.WriteString(where)

	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			if o.Column == "" {
				return Stmt{}, errQuery("order term with empty column name")
			}
			term := d.Quote(o.Column)
			if o.Desc {
				term += " DESC"
			}
			terms = append(terms, term)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
		if q.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(q.Offset))
		}
	}
	return Stmt{Text: b.String(), Args: args}, nil
}

// RenderExists wraps the select in SELECT EXISTS(...).
func (q Query) RenderExists(d Dialect) (Stmt, error) {
	inner, err := q.Render(d)
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Text: "SELECT EXISTS(" + inner.Text + ")", Args: inner.Args}, nil
}

// RenderCount builds SELECT COUNT(*) honoring the filter but not
// ordering or limits.
func (q Query) RenderCount(d Dialect) (Stmt, error) {
	where, args, err := q.whereClause(d)
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Text: "SELECT COUNT(*) FROM " + d.Quote(q.Table) + where, Args: args}, nil
}

func (q Query) whereClause(d Dialect) (string, []any, error) {
	clause, args, err := q.Filter.clause(d)
	if err != nil {
		return "", nil, err
	}
	if q.Raw != "" {
		if clause != "" {
			clause = "(" + clause + ") AND (" + q.Raw + ")"
		} else {
			clause = q.Raw
		}
		args = append(args, q.RawArgs...)
	}
	if clause == "" {
		return "", nil, nil
	}
	return " WHERE " + clause, args, nil
}

// InsertStmt renders a single-row insert. Column order is sorted so the
// same value map always renders the same text.
func InsertStmt(d Dialect, table string, values map[string]any) (Stmt, error) {
	if len(values) == 0 {
		return Stmt{}, errQuery("insert into %s with no values", table)
	}
	cols := sortedKeys(values)

	quoted := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, d.Quote(c))
		marks = append(marks, "?")
		args = append(args, values[c])
	}
	text := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	return Stmt{Text: text, Args: args}, nil
}

// UpdateStmt renders an update of the given columns for every row the
// filter matches. An empty filter updates the whole table.
func UpdateStmt(d Dialect, table string, values map[string]any, f Filter) (Stmt, error) {
	if len(values) == 0 {
		return Stmt{}, errQuery("update of %s with no values", table)
	}
	cols := sortedKeys(values)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		sets = append(sets, d.Quote(c)+" = ?")
		args = append(args, values[c])
	}

	clause, whereArgs, err := f.clause(d)
	if err != nil {
		return Stmt{}, err
	}
	text := "UPDATE " + d.Quote(table) + " SET " + strings.Join(sets, ", ")
	if clause != "" {
		text += " WHERE " + clause
		args = append(args, whereArgs...)
	}
	return Stmt{Text: text, Args: args}, nil
}

// DeleteStmt renders a delete of every row the filter matches. An empty
// filter deletes the whole table.
func DeleteStmt(d Dialect, table string, f Filter) (Stmt, error) {
	clause, args, err := f.clause(d)
	if err != nil {
		return Stmt{}, err
	}
	text := "DELETE FROM " + d.Quote(table)
	if clause != "" {
		text += " WHERE " + clause
	}
	return Stmt{Text: text, Args: args}, nil
}

// CreateTableStmt renders the DDL for a validated schema.
func CreateTableStmt(d Dialect, s core.Schema, ifNotExists bool) (Stmt, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.Quote(s.Name))
	b.WriteString(" (")

	for i, c := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		def, err := columnDef(d, c)
		if err != nil {
			return Stmt{}, err
		}
		b.WriteString(def)
	}

	if len(s.PrimaryKey) > 0 {
		quoted := make([]string, 0, len(s.PrimaryKey))
		for _, name := range s.PrimaryKey {
			quoted = append(quoted, d.Quote(name))
		}
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(")")
	}

	for _, fk := range s.ForeignKeys {
		b.WriteString(fmt.Sprintf(", FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.Quote(fk.Column), d.Quote(fk.RefTable), d.Quote(fk.RefColumn)))
		if fk.OnDelete != "" {
			b.WriteString(" ON DELETE " + string(fk.OnDelete))
		}
		if fk.OnUpdate != "" {
			b.WriteString(" ON UPDATE " + string(fk.OnUpdate))
		}
	}

	b.WriteString(")")
	return Stmt{Text: b.String()}, nil
}

// DropTableStmt renders DROP TABLE IF EXISTS.
func DropTableStmt(d Dialect, table string) Stmt {
	return Stmt{Text: "DROP TABLE IF EXISTS " + d.Quote(table)}
}

func columnDef(d Dialect, c core.Column) (string, error) {
	var b strings.Builder
	b.WriteString(d.Quote(c.Name))

	if name := d.TypeName(c.Type); name != "" {
		b.WriteString(" ")
		b.WriteString(name)
	}
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			clause, err := d.AutoIncrement()
			if err != nil {
				return "", err
			}
			if clause != "" {
				b.WriteString(" " + clause)
			}
		}
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT " + defaultLiteral(c.Default))
	}
	return b.String(), nil
}

func defaultLiteral(v any) string {
	if s, ok := v.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return fmt.Sprintf("%v", v)
}

func columnList(d Dialect, columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	quoted := make([]string, 0, len(columns))
	for _, c := range columns {
		quoted = append(quoted, d.Quote(c))
	}
	return strings.Join(quoted, ", ")
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
