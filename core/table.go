package core

import (
	"fmt"
	"strings"
)

// SchemaError reports an invalid or conflicting table definition.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.Table, e.Reason)
}

// Schema describes a table: ordered columns plus an optional composite
// primary key and foreign keys. A schema is built once, validated, and
// handed to the database for creation; it is immutable afterwards.
type Schema struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string // table-level composite key
	ForeignKeys []ForeignKey
}

// Plain builds a schema of bare untyped columns, the shorthand form where
// every column is unconstrained and the engine picks the affinity.
func Plain(name string, columns ...string) Schema {
	cols := make([]Column, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, Column{Name: c, Nullable: true})
	}
	return Schema{Name: name, Columns: cols}
}

// ColumnNames returns the declared column names in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column returns the declaration of the named column.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// KeyColumns returns the primary key column names: the single flagged
// column if one is declared, otherwise the composite key.
func (s Schema) KeyColumns() []string {
	for _, c := range s.Columns {
		if c.PrimaryKey {
			return []string{c.Name}
		}
	}
	return s.PrimaryKey
}

// Validate checks the schema for conflicting or dangling declarations.
// Every violation is a *SchemaError.
func (s Schema) Validate() error {
	if s.Name == "" {
		return &SchemaError{Table: s.Name, Reason: "table name is empty"}
	}
	if len(s.Columns) == 0 {
		return &SchemaError{Table: s.Name, Reason: "table has no columns"}
	}

	seen := map[string]bool{}
	flagged := 0
	for _, c := range s.Columns {
		if c.Name == "" {
			return &SchemaError{Table: s.Name, Reason: "column name is empty"}
		}
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			return &SchemaError{Table: s.Name, Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[lower] = true

		if c.PrimaryKey {
			flagged++
			if c.Nullable {
				return &SchemaError{Table: s.Name, Reason: fmt.Sprintf("column %q is both primary key and nullable", c.Name)}
			}
		}
		if c.AutoIncrement && (c.Type != Integer || !c.PrimaryKey) {
			return &SchemaError{Table: s.Name, Reason: fmt.Sprintf("column %q: autoincrement requires an integer primary key", c.Name)}
		}
		if err := checkDefault(s.Name, c); err != nil {
			return err
		}
	}

	if flagged > 1 {
		return &SchemaError{Table: s.Name, Reason: "more than one primary key column"}
	}
	if flagged == 1 && len(s.PrimaryKey) > 0 {
		return &SchemaError{Table: s.Name, Reason: "both a primary key column and a table-level primary key"}
	}
	for _, name := range s.PrimaryKey {
		if !seen[strings.ToLower(name)] {
			return &SchemaError{Table: s.Name, Reason: fmt.Sprintf("primary key references unknown column %q", name)}
		}
	}
	for _, fk := range s.ForeignKeys {
		if !seen[strings.ToLower(fk.Column)] {
			return &SchemaError{Table: s.Name, Reason: fmt.Sprintf("foreign key references unknown column %q", fk.Column)}
		}
		if fk.RefTable == "" || fk.RefColumn == "" {
			return &SchemaError{Table: s.Name, Reason: fmt.Sprintf("foreign key on %q has no reference target", fk.Column)}
		}
	}
	return nil
}

func checkDefault(table string, c Column) error {
	if c.Default == nil {
		return nil
	}
	ok := true
	switch c.Type {
	case Integer:
		switch c.Default.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		default:
			ok = false
		}
	case Real:
		switch c.Default.(type) {
		case float32, float64, int, int64:
		default:
			ok = false
		}
	case Text:
		_, ok = c.Default.(string)
	case Blob:
		ok = false // no portable literal syntax, set blobs by insert instead
	}
	if !ok {
		return &SchemaError{Table: table, Reason: fmt.Sprintf("column %q: default value %v does not fit type %s", c.Name, c.Default, c.Type)}
	}
	return nil
}
