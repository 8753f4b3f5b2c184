package db

import (
	"path/filepath"
	"testing"
)

func TestNewSQLiteDBCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "analyses.db")

	db, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("NewSQLiteDB returned error: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'analyses'`); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("analyses table missing")
	}

	if err := RunMigrations(db); err != nil {
		t.Errorf("running migrations twice should be a no-op: %v", err)
	}
}
