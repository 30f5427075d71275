// Package core provides the schema types used throughout lildb.
//
// The package defines Column, ColumnType, ForeignKey, and Schema, plus
// schema validation. These types only describe tables; rendering them
// into engine DDL is the stmt package's job.
//
// # Column Types
//
// Supported column types map onto the engine's storage classes:
//   - Integer: whole numbers
//   - Real: floating point numbers
//   - Text: strings
//   - Blob: raw bytes
//   - Untyped: bare column, the engine picks the affinity
//
// # Table Definition
//
//	schema := core.Schema{
//	    Name: "person",
//	    Columns: []core.Column{
//	        {Name: "id", Type: core.Integer, PrimaryKey: true},
//	        {Name: "name", Type: core.Text},
//	        {Name: "salary", Type: core.Real, Nullable: true},
//	    },
//	}
package core
