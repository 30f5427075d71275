package lildb

import "github.com/nickyhof/lildb/op"

// Filter, Cond, and Row are re-exported so most programs only import
// this package.
type (
	Filter = op.Filter
	Cond   = op.Cond
	Row    = op.Row
)

// Eq builds an equality term for a single column.
func Eq(column string, value any) Cond { return op.Eq(column, value) }

// And joins terms so every one must hold.
func And(conds ...Cond) Filter { return op.And(conds...) }

// Or joins terms so at least one must hold.
func Or(conds ...Cond) Filter { return op.Or(conds...) }

// All matches every row.
func All() Filter { return op.All() }
