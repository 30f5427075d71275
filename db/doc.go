// Package db wraps the connection to the embedded engine.
//
// Engine executes statements built by the stmt package over a single
// database/sql connection and relabels engine failures with the table
// and operation that caused them. A Dialect per engine carries the
// differences that leak through database/sql: DDL type names, catalog
// introspection, and how to take a consistent snapshot.
//
// Supported engines:
//   - sqlite (modernc.org/sqlite): the default, picked for any path
//     unless the extension says otherwise
//   - duckdb (github.com/duckdb/duckdb-go/v2): picked for .duckdb and
//     .ddb paths
//
// Push and Pull move whole-database snapshots between the local file
// and a remote location (file://, http(s):// read-only, or s3://).
package db
