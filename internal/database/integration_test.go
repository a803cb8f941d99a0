package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "zonuko.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	tables := []string{
		"parents", "children", "skills", "projects", "project_age_bands", "project_skills",
		"project_prerequisites", "project_instruction_steps", "project_pathway_points",
		"project_completions", "growth_pathways", "child_badges",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Re-running is a no-op.
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecReturningID(ctx, "INSERT INTO skills (name, description) VALUES (?, ?)", "measuring", "")
		return err
	})
	if err != nil {
		t.Fatalf("Committed transaction failed: %v", err)
	}

	errBoom := context.Canceled
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO skills (name, description) VALUES (?, ?)", "sawing", ""); err != nil {
			return err
		}
		return errBoom
	})
	if err != errBoom {
		t.Fatalf("Expected rollback error, got %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skills").Scan(&count); err != nil {
		t.Fatalf("Failed to count skills: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 skill after rollback, got %d", count)
	}
}

func TestInsertIgnoreSQLite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	query := db.Dialect.InsertIgnore("INSERT INTO skills (name, description) VALUES (?, ?)")
	for i := 0; i < 2; i++ {
		if _, err := db.ExecContext(ctx, query, "gluing", ""); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM skills WHERE name = ?", "gluing").Scan(&count); err != nil {
		t.Fatalf("Failed to count skills: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 skill, got %d", count)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "INSERT INTO skills (name, description) VALUES (?, ?)", "wiring", "circuits"); err != nil {
		t.Fatalf("Failed to create test skill: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var desc string
			err := db.QueryRowContext(ctx, "SELECT description FROM skills WHERE name = ?", "wiring").Scan(&desc)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if desc != "circuits" {
				t.Errorf("Expected description 'circuits', got '%s'", desc)
			}
		}()
	}
	wg.Wait()
}
