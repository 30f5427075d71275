package stmt

import (
	"fmt"
	"strings"
)

// QueryError reports a malformed filter or statement request, detected
// before anything reaches the engine.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return "query: " + e.Reason
}

func errQuery(format string, args ...any) *QueryError {
	return &QueryError{Reason: fmt.Sprintf(format, args...)}
}

// Combinator joins the terms of a filter.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// Cond is one equality term of a filter: column = value. A nil value
// renders as IS NULL.
type Cond struct {
	Column string
	Value  any
}

// Eq builds an equality term.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Value: value}
}

// Filter is an ordered list of equality terms joined by a combinator.
// The zero value has no terms and matches every row. Only equality is
// supported; ranges, LIKE, and nested groups are out of scope.
type Filter struct {
	Combinator Combinator // empty means AND
	Conds      []Cond
}

// Empty reports whether the filter has no terms.
func (f Filter) Empty() bool {
	return len(f.Conds) == 0
}

// clause renders the filter into predicate text and bound args, without
// the leading WHERE.
func (f Filter) clause(d Dialect) (string, []any, error) {
	comb := f.Combinator
	if comb == "" {
		comb = And
	}
	if comb != And && comb != Or {
		return "", nil, errQuery("unsupported combinator %q", string(f.Combinator))
	}

	parts := make([]string, 0, len(f.Conds))
	var args []any
	for _, c := range f.Conds {
		if c.Column == "" {
			return "", nil, errQuery("filter term with empty column name")
		}
		if c.Value == nil {
			parts = append(parts, d.Quote(c.Column)+" IS NULL")
			continue
		}
		parts = append(parts, d.Quote(c.Column)+" = ?")
		args = append(args, c.Value)
	}
	return strings.Join(parts, " "+string(comb)+" "), args, nil
}
