package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite creates a throwaway SQLite database under t.TempDir() and
// returns the usual write/read pool pair with every migration applied.
// Cleanup closes both pools; tests that don't care about the pool split can
// do everything through writeDB.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite")

	writeDB, readDB, err := OpenSQLitePair(path, 4)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	if err := RunMigrations(writeDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return writeDB, readDB
}
