// Package lildb is a small convenience layer over an embedded SQL
// engine. It hides connection handling and statement text behind table
// accessors, equality filters, and row objects that can write
// themselves back.
//
// # Quick Start
//
// Open an in-memory database and work with a table:
//
//	database, _ := lildb.Open("")
//	defer database.Close()
//
//	person, _ := database.CreateTable(core.Plain("person", "name", "post", "salary"))
//
//	_ = person.Insert(map[string]any{"name": "David", "post": "manager", "salary": 15.5})
//
//	rows, _ := person.Select(lildb.And(lildb.Eq("post", "manager")))
//	for _, row := range rows {
//		_ = row.Set("salary", 20.0)
//		_ = row.Change()
//	}
//
// Opening a path with a .duckdb or .ddb extension selects the DuckDB
// engine; everything else uses SQLite. Typed schemas, primary and
// foreign keys, a chainable query builder, and push/pull of snapshots
// to s3, http, or file destinations are available on top.
package lildb
