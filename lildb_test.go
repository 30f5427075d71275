package lildb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nickyhof/lildb/core"
	"github.com/nickyhof/lildb/op"
)

// runWithBothStores runs a test against an in-memory database and a
// file-backed one.
func runWithBothStores(t *testing.T, testFunc func(t *testing.T, database *DB)) {
	t.Run("Memory", func(t *testing.T) {
		database, err := Open("")
		if err != nil {
			t.Fatalf("Failed to open: %v", err)
		}
		t.Cleanup(func() { _ = database.Close() })
		testFunc(t, database)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.db")
		database, err := Open(path)
		if err != nil {
			t.Fatalf("Failed to open: %v", err)
		}
		t.Cleanup(func() { _ = database.Close() })
		testFunc(t, database)
	})
}

// TestWorkflow walks a table through its whole life: create, insert,
// read, update through a row, filtered delete, drop.
func TestWorkflow(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, database *DB) {
		person, err := database.CreateTable(core.Plain("person", "name", "post", "salary"))
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}

		err = person.Insert(
			map[string]any{"name": "David", "post": "manager", "salary": 15.5},
			map[string]any{"name": "Anna", "post": "clerk", "salary": 11.0},
		)
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}

		rows, err := person.All()
		if err != nil {
			t.Fatalf("Failed to select: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}

		row, ok, err := person.Get(And(Eq("name", "David")))
		if err != nil || !ok {
			t.Fatalf("Failed to get: %v", err)
		}
		if err := row.Set("salary", 20.0); err != nil {
			t.Fatalf("Failed to set: %v", err)
		}
		if err := row.Change(); err != nil {
			t.Fatalf("Failed to change: %v", err)
		}

		fresh, ok, err := person.Get(And(Eq("name", "David")))
		if err != nil || !ok {
			t.Fatalf("Failed to get: %v", err)
		}
		if salary, _ := fresh.Get("salary"); salary != 20.0 {
			t.Errorf("Unexpected salary: %v", salary)
		}

		affected, err := person.Delete(And(Eq("post", "clerk")))
		if err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if affected != 1 {
			t.Errorf("Expected 1 affected row, got %d", affected)
		}

		n, err := person.Count(All())
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 row, got %d", n)
		}

		if err := database.DropTable("person"); err != nil {
			t.Fatalf("Failed to drop: %v", err)
		}
		if _, ok := database.Table("person"); ok {
			t.Error("Expected table to be forgotten")
		}
	})
}

func TestCreateTableTyped(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, database *DB) {
		_, err := database.CreateTable(core.Schema{
			Name: "employee",
			Columns: []core.Column{
				{Name: "id", Type: core.Integer, PrimaryKey: true},
				{Name: "name", Type: core.Text, Unique: true},
				{Name: "salary", Type: core.Real, Nullable: true},
			},
		})
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}

		table, ok := database.Table("employee")
		if !ok {
			t.Fatal("Expected the table to be registered")
		}
		if key := table.PrimaryKey(); len(key) != 1 || key[0] != "id" {
			t.Errorf("Unexpected key: %v", key)
		}
	})
}

func TestCreateTableInvalidSchema(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, database *DB) {
		_, err := database.CreateTable(core.Schema{Name: "empty"})
		var serr *core.SchemaError
		if !errors.As(err, &serr) {
			t.Fatalf("Expected schema error, got %v", err)
		}
	})
}

func TestCreateTableIdempotent(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, database *DB) {
		schema := core.Plain("person", "name")
		if _, err := database.CreateTable(schema); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
		if _, err := database.CreateTable(schema); err != nil {
			t.Fatalf("Second create failed: %v", err)
		}
	})
}

func TestTableLookupCaseInsensitive(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, database *DB) {
		if _, err := database.CreateTable(core.Plain("Person", "name")); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
		if _, ok := database.Table("person"); !ok {
			t.Error("Expected lower-case lookup to find the table")
		}
		if _, ok := database.Table("PERSON"); !ok {
			t.Error("Expected upper-case lookup to find the table")
		}
	})
}

func TestDiscoveryOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	person, err := database.CreateTable(core.Plain("person", "name", "salary"))
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if err := person.Insert(map[string]any{"name": "David", "salary": 15.5}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	if got := reopened.Tables(); len(got) != 1 || got[0] != "person" {
		t.Fatalf("Unexpected tables after reopen: %v", got)
	}
	table, _ := reopened.Table("person")
	n, err := table.Count(All())
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row, got %d", n)
	}
}

func TestDropTables(t *testing.T) {
	runWithBothStores(t, func(t *testing.T, database *DB) {
		if _, err := database.CreateTable(core.Plain("person", "name")); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
		if _, err := database.CreateTable(core.Plain("note", "body")); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}

		if err := database.DropTables(); err != nil {
			t.Fatalf("Failed to drop tables: %v", err)
		}
		if got := database.Tables(); len(got) != 0 {
			t.Errorf("Expected no tables, got %v", got)
		}
	})
}

func TestRecordsOption(t *testing.T) {
	database, err := Open("", Records())
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	person, err := database.CreateTable(core.Plain("person", "name"))
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if err := person.Insert(map[string]any{"name": "David"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	row, ok, err := person.Get(And(Eq("name", "David")))
	if err != nil || !ok {
		t.Fatalf("Failed to get: %v", err)
	}
	if _, isRec := row.(*op.RecRow); !isRec {
		t.Errorf("Expected a fixed-field row, got %T", row)
	}
}

func TestSnapshotAndReopen(t *testing.T) {
	database, err := Open("")
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	person, err := database.CreateTable(core.Plain("person", "name"))
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if err := person.Insert(map[string]any{"name": "David"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copy.db")
	if err := database.Snapshot(dst); err != nil {
		t.Fatalf("Failed to snapshot: %v", err)
	}

	copied, err := Open(dst)
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	t.Cleanup(func() { _ = copied.Close() })

	table, ok := copied.Table("person")
	if !ok {
		t.Fatal("Expected the table in the snapshot")
	}
	n, err := table.Count(All())
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row, got %d", n)
	}
}
