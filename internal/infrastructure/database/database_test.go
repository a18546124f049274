package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/nerrad567/oscleash/internal/infrastructure/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "sub", "test.db"),
		WALMode:     true,
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenAndHealthCheck(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}
	if filepath.Base(db.Path()) != "test.db" {
		t.Errorf("Path() = %q", db.Path())
	}
}

func TestCloseNil(t *testing.T) {
	var db *DB
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantErr     bool
	}{
		{"20260301_120000_audit_logs.up.sql", "20260301_120000", "audit_logs", false},
		{"20260301_120000_x.up.sql", "20260301_120000", "x", false},
		{"2026_120000_bad.up.sql", "", "", true},
		{"20260301_120000.up.sql", "", "", true},
		{"audit.up.sql", "", "", true},
	}

	for _, tt := range tests {
		version, name, err := parseMigrationName(tt.filename)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMigrationName(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			continue
		}
		if version != tt.wantVersion || name != tt.wantName {
			t.Errorf("parseMigrationName(%q) = (%q, %q)", tt.filename, version, name)
		}
	}
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"20260302_000000_second.up.sql":  {Data: []byte("ALTER TABLE things ADD COLUMN label TEXT;")},
		"20260301_000000_first.up.sql":   {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"20260301_000000_first.down.sql": {Data: []byte("DROP TABLE things;")},
		"README.md":                      {Data: []byte("ignored")},
	}

	n, err := db.Migrate(ctx, fsys)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Migrate() applied %d, want 2", n)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO things (label) VALUES ('ok')"); err != nil {
		t.Errorf("migrated schema unusable: %v", err)
	}

	// Second run is a no-op.
	n, err = db.Migrate(ctx, fsys)
	if err != nil || n != 0 {
		t.Errorf("re-run Migrate() = (%d, %v), want (0, nil)", n, err)
	}
}

func TestMigrateStopsOnFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"20260301_000000_ok.up.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"20260302_000000_broken.up.sql": {Data: []byte("CREATE TABLE (;")},
		"20260303_000000_later.up.sql":  {Data: []byte("CREATE TABLE c (id INTEGER);")},
	}

	n, err := db.Migrate(ctx, fsys)
	if err == nil {
		t.Fatal("Migrate() expected error")
	}
	if n != 1 {
		t.Errorf("applied %d before failure, want 1", n)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", count)
	}
}
