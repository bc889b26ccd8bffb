package shared

import (
	"database/sql"
	"testing"
)

func newSchemaDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func credentialsTableExists(t *testing.T, db *sql.DB) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='credentials'").Scan(&count)
	if err != nil {
		t.Fatalf("failed to inspect schema: %v", err)
	}
	return count == 1
}

func TestSchema(t *testing.T) {
	t.Run("RunMigrations", func(t *testing.T) {
		db := newSchemaDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations failed: %v", err)
		}
		if !credentialsTableExists(t, db) {
			t.Error("expected credentials table after migration")
		}

		t.Run("Idempotent", func(t *testing.T) {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("second run failed: %v", err)
			}
		})
	})

	t.Run("ResetSchema", func(t *testing.T) {
		t.Run("nothing applied is a no-op", func(t *testing.T) {
			db := newSchemaDB(t)

			if err := ResetSchema(db); err != nil {
				t.Fatalf("ResetSchema failed: %v", err)
			}
		})

		t.Run("drops the credentials table", func(t *testing.T) {
			db := newSchemaDB(t)

			if err := RunMigrations(db); err != nil {
				t.Fatalf("RunMigrations failed: %v", err)
			}
			if err := ResetSchema(db); err != nil {
				t.Fatalf("ResetSchema failed: %v", err)
			}
			if credentialsTableExists(t, db) {
				t.Error("expected credentials table to be dropped")
			}
		})

		t.Run("migrations reapply after a reset", func(t *testing.T) {
			db := newSchemaDB(t)

			if err := RunMigrations(db); err != nil {
				t.Fatalf("RunMigrations failed: %v", err)
			}
			if err := ResetSchema(db); err != nil {
				t.Fatalf("ResetSchema failed: %v", err)
			}
			if err := RunMigrations(db); err != nil {
				t.Fatalf("reapply failed: %v", err)
			}
			if !credentialsTableExists(t, db) {
				t.Error("expected credentials table after reapply")
			}
		})
	})
}
