// Package stmt builds parameterized statements for the supported engines.
//
// Nothing in this package talks to a database: filters, value maps, and
// schemas go in, statement text plus bound arguments come out. The db
// package executes the result; the op package decides what to build.
//
// Filter semantics are deliberately narrow: equality terms only, joined
// by AND or OR. Values bind through `?` placeholders, nil values render
// as IS NULL, and identifiers are quoted by the dialect.
package stmt
