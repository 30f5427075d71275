package op

import "github.com/nickyhof/lildb/stmt"

// Filter and Cond are re-exported so callers build predicates without
// importing the statement package.
type (
	Filter = stmt.Filter
	Cond   = stmt.Cond
)

// Eq builds an equality term for a single column. A nil value matches
// rows where the column is NULL.
func Eq(column string, value any) Cond { return stmt.Eq(column, value) }

// And joins terms so every one must hold. With no terms it matches all rows.
func And(conds ...Cond) Filter { return Filter{Combinator: stmt.And, Conds: conds} }

// Or joins terms so at least one must hold.
func Or(conds ...Cond) Filter { return Filter{Combinator: stmt.Or, Conds: conds} }

// All matches every row. Spelled out so full-table updates and deletes
// read as intent at the call site.
func All() Filter { return Filter{} }
