package db

import (
	"database/sql"
	"fmt"

	"github.com/go-pkgz/lgr"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver loaded here
	_ "modernc.org/sqlite"             // sqlite driver loaded here

	"github.com/nickyhof/lildb/stmt"
)

// Engine owns the connection to the embedded engine and executes built
// statements against it. Every call is synchronous and auto-committed;
// transaction grouping, locking, and durability stay with the engine.
type Engine struct {
	db      *sql.DB
	dialect Dialect
	path    string
	log     lgr.L
}

// Connect opens (or creates) the database at path. An empty path or
// ":memory:" opens an in-memory instance. The pool is capped at one
// connection: an in-memory database lives per connection, and the
// wrapper promises a single writer anyway.
func Connect(path string, dialect Dialect, log lgr.L) (*Engine, error) {
	if dialect == nil {
		dialect = DetectDialect(path)
	}
	if log == nil {
		log = lgr.NoOp
	}

	sqlDB, err := sql.Open(dialect.driver(), dialect.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", dialect.Name(), path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect to %s database %q: %w", dialect.Name(), path, err)
	}

	log.Logf("[INFO] opened %s database at %q", dialect.Name(), path)
	return &Engine{db: sqlDB, dialect: dialect, path: path, log: log}, nil
}

// Dialect returns the engine's dialect.
func (e *Engine) Dialect() Dialect { return e.dialect }

// Path returns the path the database was opened with.
func (e *Engine) Path() string { return e.path }

// Exec runs a mutating statement and returns the number of affected
// rows. Engine failures come back as *EngineError carrying the table
// and operation.
func (e *Engine) Exec(table, op string, s stmt.Stmt) (int64, error) {
	e.log.Logf("[DEBUG] %s %s: %s %v", op, table, s.Text, s.Args)
	res, err := e.db.Exec(s.Text, s.Args...)
	if err != nil {
		return 0, &EngineError{Table: table, Op: op, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &EngineError{Table: table, Op: op, Err: err}
	}
	return affected, nil
}

// ExecAll runs the statements inside one transaction and returns the
// total number of affected rows. Any failure rolls the whole batch
// back, so either every statement applies or none does.
func (e *Engine) ExecAll(table, op string, stmts []stmt.Stmt) (int64, error) {
	tx, err := e.db.Begin()
	if err != nil {
		return 0, &EngineError{Table: table, Op: op, Err: err}
	}

	var total int64
	for _, s := range stmts {
		e.log.Logf("[DEBUG] %s %s: %s %v", op, table, s.Text, s.Args)
		res, err := tx.Exec(s.Text, s.Args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, &EngineError{Table: table, Op: op, Err: err}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, &EngineError{Table: table, Op: op, Err: err}
		}
		total += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, &EngineError{Table: table, Op: op, Err: err}
	}
	return total, nil
}

// Query runs a select and returns the raw rows; the caller closes them.
func (e *Engine) Query(table, op string, s stmt.Stmt) (*sql.Rows, error) {
	e.log.Logf("[DEBUG] %s %s: %s %v", op, table, s.Text, s.Args)
	rows, err := e.db.Query(s.Text, s.Args...)
	if err != nil {
		return nil, &EngineError{Table: table, Op: op, Err: err}
	}
	return rows, nil
}

// QueryValue runs a select expected to produce exactly one scalar.
func (e *Engine) QueryValue(table, op string, s stmt.Stmt, dest any) error {
	e.log.Logf("[DEBUG] %s %s: %s %v", op, table, s.Text, s.Args)
	if err := e.db.QueryRow(s.Text, s.Args...).Scan(dest); err != nil {
		return &EngineError{Table: table, Op: op, Err: err}
	}
	return nil
}

// Tables lists the user tables in the engine catalog.
func (e *Engine) Tables() ([]string, error) {
	names, err := e.dialect.tables(e.db)
	if err != nil {
		return nil, &EngineError{Op: "list tables", Err: err}
	}
	return names, nil
}

// Columns returns the ordered column names of a table and its primary
// key columns (in key order).
func (e *Engine) Columns(table string) (names, key []string, err error) {
	names, key, err = e.dialect.columns(e.db, table)
	if err != nil {
		return nil, nil, &EngineError{Table: table, Op: "describe", Err: err}
	}
	return names, key, nil
}

// Snapshot writes a consistent copy of the database to a local path.
func (e *Engine) Snapshot(dst string) error {
	if err := e.dialect.snapshot(e.db, e.path, dst); err != nil {
		return &EngineError{Op: "snapshot", Err: err}
	}
	return nil
}

// Close closes the underlying connection.
func (e *Engine) Close() error {
	e.log.Logf("[INFO] closing %s database at %q", e.dialect.Name(), e.path)
	return e.db.Close()
}
