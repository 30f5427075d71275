package lildb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/hashicorp/go-multierror"

	"github.com/nickyhof/lildb/core"
	"github.com/nickyhof/lildb/db"
	"github.com/nickyhof/lildb/op"
	"github.com/nickyhof/lildb/stmt"
)

// Option adjusts how a database is opened.
type Option func(*options)

type options struct {
	dialect db.Dialect
	log     lgr.L
	records bool
}

// Records makes fetched rows use the fixed-field representation instead
// of maps.
func Records() Option {
	return func(o *options) { o.records = true }
}

// Logger sets the logger. Without it the database is silent.
func Logger(l lgr.L) Option {
	return func(o *options) { o.log = l }
}

// Dialect forces an engine dialect instead of detecting one from the
// path.
func Dialect(d db.Dialect) Option {
	return func(o *options) { o.dialect = d }
}

// DB is a handle on one database file. It owns the engine connection
// and an accessor per discovered table.
type DB struct {
	engine  *db.Engine
	log     lgr.L
	records bool
	tables  map[string]*op.Table
}

// Open connects to the database at path and builds accessors for every
// table already in it. An empty path opens an in-memory database. The
// dialect is detected from the file extension unless forced with
// Dialect.
func Open(path string, opts ...Option) (*DB, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = lgr.NoOp
	}

	engine, err := db.Connect(path, o.dialect, o.log)
	if err != nil {
		return nil, err
	}

	d := &DB{
		engine:  engine,
		log:     o.log,
		records: o.records,
		tables:  make(map[string]*op.Table),
	}
	if err := d.discover(); err != nil {
		_ = engine.Close()
		return nil, err
	}
	return d, nil
}

// discover registers an accessor for every table in the engine catalog.
func (d *DB) discover() error {
	names, err := d.engine.Tables()
	if err != nil {
		return err
	}
	for _, name := range names {
		table, err := op.NewTable(name, d.engine, d.records)
		if err != nil {
			return fmt.Errorf("discover table %s: %w", name, err)
		}
		d.tables[strings.ToLower(name)] = table
	}
	d.log.Logf("[INFO] discovered %d tables", len(names))
	return nil
}

// CreateTable creates the table described by the schema, unless it
// already exists, and returns its accessor.
func (d *DB) CreateTable(s core.Schema) (*op.Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	create, err := stmt.CreateTableStmt(d.engine.Dialect(), s, true)
	if err != nil {
		return nil, err
	}
	if _, err := d.engine.Exec(s.Name, "create table", create); err != nil {
		return nil, err
	}
	table, err := op.NewTable(s.Name, d.engine, d.records)
	if err != nil {
		return nil, err
	}
	d.tables[strings.ToLower(s.Name)] = table
	return table, nil
}

// Table returns the accessor for a table by name, case-insensitively,
// and whether the table exists.
func (d *DB) Table(name string) (*op.Table, bool) {
	table, ok := d.tables[strings.ToLower(name)]
	return table, ok
}

// Tables returns the known table names, sorted.
func (d *DB) Tables() []string {
	names := make([]string, 0, len(d.tables))
	for _, table := range d.tables {
		names = append(names, table.Name())
	}
	sort.Strings(names)
	return names
}

// DropTable drops one table and forgets its accessor.
func (d *DB) DropTable(name string) error {
	table, ok := d.Table(name)
	if !ok {
		return &stmt.QueryError{Reason: fmt.Sprintf("table %q does not exist", name)}
	}
	if err := table.Drop(); err != nil {
		return err
	}
	delete(d.tables, strings.ToLower(name))
	return nil
}

// DropTables drops every known table. It keeps going after a failure
// and returns the collected errors.
func (d *DB) DropTables() error {
	var result *multierror.Error
	for _, name := range d.Tables() {
		if err := d.DropTable(name); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Engine exposes the underlying engine for statements the convenience
// layer does not cover.
func (d *DB) Engine() *db.Engine { return d.engine }

// Snapshot writes a consistent copy of the database to a local file.
func (d *DB) Snapshot(dst string) error { return d.engine.Snapshot(dst) }

// Push uploads a snapshot of the database to a remote destination.
func (d *DB) Push(ctx context.Context, dst string, opts ...db.RemoteOption) error {
	return d.engine.Push(ctx, dst, opts...)
}

// Pull downloads a remote database to a local path, ready to Open.
func Pull(ctx context.Context, src, localPath string, opts ...db.RemoteOption) error {
	return db.Pull(ctx, src, localPath, opts...)
}

// Close closes the engine connection.
func (d *DB) Close() error { return d.engine.Close() }
