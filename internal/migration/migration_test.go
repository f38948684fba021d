package migration

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	return db, func() { db.Close() }
}

func setupTestMigrations(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return m
}

func TestGetCurrentVersion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}))

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(map[string]string{
		"003_another.sql": "CREATE TABLE test2 (id INTEGER);",
		"001_init.sql":    "CREATE TABLE test1 (id INTEGER);",
		"002_update.sql":  "ALTER TABLE test1 ADD COLUMN name TEXT;",
		"README.md":       "ignored",
	}))

	migrations, err := runner.ReadMigrationFiles()
	if err != nil {
		t.Fatalf("ReadMigrationFiles failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantNames := []string{"init", "update", "another"}
	for i, m := range migrations {
		if m.Version != i+1 || m.Name != wantNames[i] {
			t.Errorf("migration %d: got version %d name %q", i, m.Version, m.Name)
		}
	}
}

func TestApplyMigrationsIncremental(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	files := map[string]string{
		"001_init.sql": "CREATE TABLE entries (id TEXT PRIMARY KEY, mood TEXT);",
	}
	applied, err := NewRunner(db, setupTestMigrations(files)).ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("expected 1 migration applied, got %d", applied)
	}

	files["002_level.sql"] = "ALTER TABLE entries ADD COLUMN level INTEGER NOT NULL DEFAULT 3;"
	var logs []string
	runner := NewRunner(db, setupTestMigrations(files))
	applied, err = runner.ApplyMigrations(func(s string) { logs = append(logs, s) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("expected 1 migration applied, got %d", applied)
	}
	if len(logs) == 0 || !strings.Contains(logs[0], "1 -> 2") {
		t.Errorf("unexpected log output: %v", logs)
	}

	// Running again is a no-op
	applied, err = runner.ApplyMigrations(nil)
	if err != nil || applied != 0 {
		t.Errorf("second run: applied=%d err=%v, want 0, nil", applied, err)
	}
}

func TestApplyMigrationsRunsHookInTransaction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := db.Exec("CREATE TABLE entries (id TEXT PRIMARY KEY, mood TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO entries VALUES ('a', 'happy'), ('b', '')"); err != nil {
		t.Fatal(err)
	}

	files := setupTestMigrations(map[string]string{
		"001_level.sql": "ALTER TABLE entries ADD COLUMN level INTEGER NOT NULL DEFAULT 0;",
	})
	hook := func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE entries SET level = CASE mood WHEN 'happy' THEN 4 ELSE 3 END")
		return err
	}

	if _, err := NewRunner(db, files, WithHook(1, hook)).ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}

	var level int
	if err := db.QueryRow("SELECT level FROM entries WHERE id = 'a'").Scan(&level); err != nil {
		t.Fatal(err)
	}
	if level != 4 {
		t.Errorf("level = %d, want 4", level)
	}
}

func TestMigrationRollbackOnHookError(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	files := setupTestMigrations(map[string]string{
		"001_init.sql": "CREATE TABLE entries (id TEXT PRIMARY KEY);",
	})
	runner := NewRunner(db, files, WithHook(1, func(*sql.Tx) error { return errors.New("boom") }))

	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Fatal("expected error from failing hook")
	}

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 0 {
		t.Errorf("version = %d after rollback, want 0", version)
	}

	var n int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name='entries'").Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Error("entries table should not exist after rollback")
	}
}

func TestValidateVersion(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(map[string]string{
		"001_init.sql": "CREATE TABLE a (id INTEGER);",
		"002_more.sql": "CREATE TABLE b (id INTEGER);",
	}))

	if err := runner.SetVersion(1); err != nil {
		t.Fatal(err)
	}
	if err := runner.ValidateVersion(); err == nil || !strings.Contains(err.Error(), "mani migrate") {
		t.Errorf("expected behind error, got %v", err)
	}

	if err := runner.SetVersion(9); err != nil {
		t.Fatal(err)
	}
	if err := runner.ValidateVersion(); err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("expected newer error, got %v", err)
	}
	if _, err := runner.ApplyMigrations(nil); err == nil {
		t.Error("ApplyMigrations should refuse a newer database")
	}
}

func TestMigrationFilenameValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tests := map[string]string{
		"no underscore": "001.sql",
		"non numeric":   "abc_init.sql",
		"zero version":  "000_init.sql",
	}
	for name, file := range tests {
		t.Run(name, func(t *testing.T) {
			runner := NewRunner(db, setupTestMigrations(map[string]string{file: "SELECT 1;"}))
			if _, err := runner.ReadMigrationFiles(); err == nil {
				t.Errorf("expected error for %s", file)
			}
		})
	}
}

func TestDuplicateVersionDetection(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(map[string]string{
		"001_init.sql":  "SELECT 1;",
		"001_other.sql": "SELECT 1;",
	}))
	if _, err := runner.ReadMigrationFiles(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate version error, got %v", err)
	}
}
