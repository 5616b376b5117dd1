package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db")+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitSchema(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	// Second call takes the existing-database path.
	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() on existing db error = %v", err)
	}

	version, err := schemaVersion(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}

	for _, table := range []string{"collections", "walkers", "schema_version"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInitSchema_RejectsNewerVersion(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	if err := InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	err := InitSchema(ctx, db)
	if err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("InitSchema() error = %v, want newer-version error", err)
	}
}

func TestValidateIntegrity(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	if err := InitSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if err := ValidateIntegrity(ctx, db); err != nil {
		t.Errorf("ValidateIntegrity() on fresh db error = %v", err)
	}
}
