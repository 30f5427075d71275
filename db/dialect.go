package db

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nickyhof/lildb/core"
	"github.com/nickyhof/lildb/stmt"
)

// Dialect carries the per-engine differences: DDL type names, identifier
// quoting, catalog introspection, and snapshot mechanics. The set of
// dialects is closed; everything else delegates to the engine unchanged.
type Dialect interface {
	stmt.Dialect

	// Name is the engine name as used in DetectDialect and logs.
	Name() string

	driver() string
	dsn(path string) string
	tables(db *sql.DB) ([]string, error)
	columns(db *sql.DB, table string) (names, key []string, err error)
	snapshot(db *sql.DB, path, dst string) error
}

// DetectDialect picks the engine from the path, the way a connection
// string picks a driver: .duckdb and .ddb files open DuckDB, everything
// else (files, ":memory:", empty) opens SQLite.
func DetectDialect(path string) Dialect {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".duckdb") || strings.HasSuffix(lower, ".ddb") {
		return DuckDB()
	}
	return SQLite()
}

// SQLite returns the sqlite dialect (modernc.org/sqlite driver).
func SQLite() Dialect { return sqliteDialect{} }

// DuckDB returns the duckdb dialect.
func DuckDB() Dialect { return duckdbDialect{} }

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string   { return "sqlite" }
func (sqliteDialect) driver() string { return "sqlite" }

func (sqliteDialect) dsn(path string) string {
	if path == "" {
		return ":memory:"
	}
	return path
}

func (sqliteDialect) TypeName(t core.ColumnType) string { return t.String() }

func (sqliteDialect) AutoIncrement() (string, error) { return "AUTOINCREMENT", nil }

func (sqliteDialect) Quote(ident string) string { return quoteIdent(ident) }

func (sqliteDialect) tables(db *sql.DB) ([]string, error) {
	const q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	return scanStrings(db, q)
}

func (sqliteDialect) columns(db *sql.DB, table string) (names, key []string, err error) {
	rows, err := db.Query(`SELECT name, pk FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type keyCol struct {
		name string
		pos  int
	}
	var keyCols []keyCol
	for rows.Next() {
		var name string
		var pk int
		if err := rows.Scan(&name, &pk); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		if pk > 0 {
			keyCols = append(keyCols, keyCol{name: name, pos: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	// pk carries the 1-based position within a composite key
	sort.Slice(keyCols, func(i, j int) bool { return keyCols[i].pos < keyCols[j].pos })
	for _, kc := range keyCols {
		key = append(key, kc.name)
	}
	return names, key, nil
}

func (d sqliteDialect) snapshot(db *sql.DB, _, dst string) error {
	// VACUUM INTO writes a consistent copy, in-memory databases included
	_, err := db.Exec("VACUUM INTO '" + strings.ReplaceAll(dst, "'", "''") + "'")
	return err
}

type duckdbDialect struct{}

func (duckdbDialect) Name() string   { return "duckdb" }
func (duckdbDialect) driver() string { return "duckdb" }

func (duckdbDialect) dsn(path string) string {
	if path == ":memory:" {
		return "" // empty DSN is duckdb's in-memory form
	}
	return path
}

func (duckdbDialect) TypeName(t core.ColumnType) string {
	switch t {
	case core.Integer:
		return "INTEGER"
	case core.Real:
		return "DOUBLE"
	case core.Blob:
		return "BLOB"
	default:
		// duckdb insists on a type, so untyped and text both render VARCHAR
		return "VARCHAR"
	}
}

func (duckdbDialect) AutoIncrement() (string, error) {
	return "", fmt.Errorf("duckdb has no autoincrement clause, use a sequence default instead")
}

func (duckdbDialect) Quote(ident string) string { return quoteIdent(ident) }

func (duckdbDialect) tables(db *sql.DB) ([]string, error) {
	const q = `SELECT table_name FROM information_schema.tables WHERE table_schema = 'main' ORDER BY table_name`
	return scanStrings(db, q)
}

func (duckdbDialect) columns(db *sql.DB, table string) (names, key []string, err error) {
	rows, err := db.Query(`SELECT name, pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var pk bool
		if err := rows.Scan(&name, &pk); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		if pk {
			key = append(key, name)
		}
	}
	return names, key, rows.Err()
}

func (duckdbDialect) snapshot(db *sql.DB, path, dst string) error {
	if path == "" || path == ":memory:" {
		return fmt.Errorf("in-memory duckdb database cannot be snapshotted")
	}
	// flush the WAL, then copy the file; single-writer discipline makes
	// the copy consistent
	if _, err := db.Exec("CHECKPOINT"); err != nil {
		return err
	}
	return copyFile(path, dst)
}

func scanStrings(db *sql.DB, query string) ([]string, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
