package lildb

import (
	"fmt"
	"testing"

	"github.com/nickyhof/lildb/core"
	"github.com/nickyhof/lildb/op"
)

// setupBenchmarkDB creates an in-memory database with seed data.
func setupBenchmarkDB(b *testing.B) (*DB, *op.Table) {
	b.Helper()

	database, err := Open("")
	if err != nil {
		b.Fatalf("Failed to open: %v", err)
	}
	b.Cleanup(func() { _ = database.Close() })

	users, err := database.CreateTable(core.Schema{
		Name: "users",
		Columns: []core.Column{
			{Name: "id", Type: core.Integer, PrimaryKey: true},
			{Name: "name", Type: core.Text},
			{Name: "age", Type: core.Integer},
			{Name: "city", Type: core.Text},
		},
	})
	if err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}

	for i := 1; i <= 1000; i++ {
		err := users.Insert(map[string]any{
			"id":   i,
			"name": fmt.Sprintf("User%d", i),
			"age":  20 + i%50,
			"city": fmt.Sprintf("City%d", i%10),
		})
		if err != nil {
			b.Fatalf("Failed to insert: %v", err)
		}
	}
	return database, users
}

func BenchmarkInsert(b *testing.B) {
	database, err := Open("")
	if err != nil {
		b.Fatalf("Failed to open: %v", err)
	}
	b.Cleanup(func() { _ = database.Close() })

	users, err := database.CreateTable(core.Plain("users", "id", "name"))
	if err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := users.Insert(map[string]any{"id": i, "name": "User"})
		if err != nil {
			b.Fatalf("Insert error: %v", err)
		}
	}
}

func BenchmarkSelectFiltered(b *testing.B) {
	_, users := setupBenchmarkDB(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rows, err := users.Select(And(Eq("city", "City5")))
		if err != nil {
			b.Fatalf("Select error: %v", err)
		}
		if len(rows) != 100 {
			b.Fatalf("Expected 100 rows, got %d", len(rows))
		}
	}
}

func BenchmarkByKey(b *testing.B) {
	_, users := setupBenchmarkDB(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, ok, err := users.ByKey(1 + i%1000)
		if err != nil || !ok {
			b.Fatalf("ByKey error: %v", err)
		}
	}
}

func BenchmarkUpdate(b *testing.B) {
	_, users := setupBenchmarkDB(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := users.Update(map[string]any{"age": 30 + i%10}, And(Eq("id", 1+i%1000)))
		if err != nil {
			b.Fatalf("Update error: %v", err)
		}
	}
}

func BenchmarkScan(b *testing.B) {
	_, users := setupBenchmarkDB(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		count := 0
		for _, err := range users.Scan() {
			if err != nil {
				b.Fatalf("Scan error: %v", err)
			}
			count++
		}
		if count != 1000 {
			b.Fatalf("Expected 1000 rows, got %d", count)
		}
	}
}

func BenchmarkRowChange(b *testing.B) {
	_, users := setupBenchmarkDB(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		row, ok, err := users.ByKey(1 + i%1000)
		if err != nil || !ok {
			b.Fatalf("ByKey error: %v", err)
		}
		if err := row.Set("age", 25); err != nil {
			b.Fatalf("Set error: %v", err)
		}
		if err := row.Change(); err != nil {
			b.Fatalf("Change error: %v", err)
		}
	}
}
