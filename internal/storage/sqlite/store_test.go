package sqlite

import (
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/migration"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/storage"
	"github.com/charlesinwald/mani/internal/storage/sqlstore"
	"github.com/charlesinwald/mani/migrations"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestSQLiteStore(t *testing.T) (*Store, func()) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store := NewStore(dbPath, sqlstore.WithClock(func() time.Time { return fixedNow }))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}

	return store, func() { store.Close() }
}

func diary(id, date string, modifiedAt int64) models.DiaryEntry {
	return models.DiaryEntry{Entry: models.Entry{
		ID:          id,
		Date:        date,
		Description: "entry " + id,
		CreatedAt:   modifiedAt,
		ModifiedAt:  modifiedAt,
		Mood:        models.DefaultMood,
		Weather:     "Clear",
		Temperature: "20°C",
	}}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); !errors.Is(err, storage.ErrNotInitialized) {
		t.Fatalf("Load() error = %v, want ErrNotInitialized", err)
	}
}

func TestInitThenLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mani.db")

	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	store.Close()

	reopened := NewStore(dbPath)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer reopened.Close()

	for _, table := range []string{"diary_entries", "memoir_entries", "checklist_entries", "progress_logs", "purged_records"} {
		ok, err := reopened.TableExists(table)
		if err != nil || !ok {
			t.Errorf("TableExists(%s) = %v, %v", table, ok, err)
		}
	}
}

func TestCreateDiaryEntryDateGuard(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	created, err := store.CreateDiaryEntry(diary("a", "2024-03-01", 1))
	if err != nil || !created {
		t.Fatalf("CreateDiaryEntry() = %v, %v; want true, nil", created, err)
	}

	created, err = store.CreateDiaryEntry(diary("b", "2024-03-01", 2))
	if err != nil {
		t.Fatalf("CreateDiaryEntry() error = %v", err)
	}
	if created {
		t.Error("second entry on the same date should not be created")
	}

	// A tombstone does not hold the date
	if err := store.SoftDeleteDiaryEntry("a"); err != nil {
		t.Fatalf("SoftDeleteDiaryEntry() error = %v", err)
	}
	created, err = store.CreateDiaryEntry(diary("c", "2024-03-01", 3))
	if err != nil || !created {
		t.Errorf("CreateDiaryEntry() after delete = %v, %v; want true, nil", created, err)
	}
}

func TestMemoirsMayShareADate(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	for _, id := range []string{"m1", "m2"} {
		m := models.MemoirEntry{Entry: diary(id, "2024-03-01", 1).Entry}
		created, err := store.CreateMemoirEntry(m)
		if err != nil || !created {
			t.Fatalf("CreateMemoirEntry(%s) = %v, %v", id, created, err)
		}
	}

	memoirs, err := store.ListMemoirEntries(storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(memoirs) != 2 {
		t.Errorf("expected 2 memoirs, got %d", len(memoirs))
	}
}

func TestUpdateOrCreateDiaryEntry(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	if _, err := store.CreateDiaryEntry(diary("a", "2024-03-01", 1)); err != nil {
		t.Fatal(err)
	}

	t.Run("matches by id", func(t *testing.T) {
		e := diary("a", "2024-03-02", 10)
		e.Description = "moved"
		stored, err := store.UpdateOrCreateDiaryEntry(e)
		if err != nil {
			t.Fatal(err)
		}
		if stored.ID != "a" || stored.Date != "2024-03-02" || stored.Description != "moved" {
			t.Errorf("stored = %+v", stored)
		}
		if stored.CreatedAt != 1 {
			t.Errorf("CreatedAt changed to %d", stored.CreatedAt)
		}
	})

	t.Run("falls back to live date", func(t *testing.T) {
		e := diary("other", "2024-03-02", 20)
		e.Description = "same day, different id"
		stored, err := store.UpdateOrCreateDiaryEntry(e)
		if err != nil {
			t.Fatal(err)
		}
		if stored.ID != "a" {
			t.Errorf("expected the existing row to be updated, got id %s", stored.ID)
		}
		if _, err := store.FindDiaryEntryByID("other"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("no row should exist for id other, err = %v", err)
		}
	})

	t.Run("creates when nothing matches", func(t *testing.T) {
		e := diary("", "2024-04-01", 30)
		stored, err := store.UpdateOrCreateDiaryEntry(e)
		if err != nil {
			t.Fatal(err)
		}
		if stored.ID == "" {
			t.Fatal("expected a generated id")
		}
		if _, err := store.FindDiaryEntryByID(stored.ID); err != nil {
			t.Errorf("FindDiaryEntryByID(%s) error = %v", stored.ID, err)
		}
	})

	t.Run("rejects moving onto an occupied date", func(t *testing.T) {
		e := diary("a", "2024-04-01", 40)
		if _, err := store.UpdateOrCreateDiaryEntry(e); !errors.Is(err, storage.ErrDuplicateDate) {
			t.Fatalf("UpdateOrCreateDiaryEntry() error = %v, want ErrDuplicateDate", err)
		}
		got, err := store.FindDiaryEntryByID("a")
		if err != nil {
			t.Fatal(err)
		}
		if got.Date != "2024-03-02" {
			t.Errorf("date changed to %s", got.Date)
		}
	})
}

func TestSoftDeleteDiaryEntry(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	if _, err := store.CreateDiaryEntry(diary("a", "2024-03-01", 1)); err != nil {
		t.Fatal(err)
	}
	if err := store.SoftDeleteDiaryEntry("a"); err != nil {
		t.Fatalf("SoftDeleteDiaryEntry() error = %v", err)
	}

	live, err := store.ListDiaryEntries(storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 0 {
		t.Errorf("expected no live entries, got %d", len(live))
	}

	all, err := store.ListDiaryEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].Deleted {
		t.Fatalf("expected one tombstone, got %+v", all)
	}
	if all[0].ModifiedAt != fixedNow.UnixMilli() {
		t.Errorf("ModifiedAt = %d, want %d", all[0].ModifiedAt, fixedNow.UnixMilli())
	}
	if all[0].Description != "entry a" {
		t.Errorf("tombstone lost its data: %+v", all[0])
	}

	if err := store.SoftDeleteDiaryEntry("a"); !errors.Is(err, storage.ErrAlreadyDeleted) {
		t.Errorf("second delete error = %v, want ErrAlreadyDeleted", err)
	}
	if err := store.SoftDeleteDiaryEntry("nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing delete error = %v, want ErrNotFound", err)
	}
}

func TestListDiaryEntriesOrder(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	for _, e := range []models.DiaryEntry{
		diary("jan", "2024-01-01", 1),
		diary("mar", "2024-03-01", 2),
		diary("feb", "2024-02-01", 3),
	} {
		if _, err := store.CreateDiaryEntry(e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListDiaryEntries(storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"mar", "feb", "jan"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestHardDeleteAndWipe(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	for _, e := range []models.DiaryEntry{diary("a", "2024-01-01", 1), diary("b", "2024-01-02", 1)} {
		if _, err := store.CreateDiaryEntry(e); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.HardDeleteDiaryEntry("a"); err != nil {
		t.Fatalf("HardDeleteDiaryEntry() error = %v", err)
	}
	if err := store.HardDeleteDiaryEntry("a"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("HardDeleteDiaryEntry(missing) error = %v", err)
	}

	if err := store.WipeAllDiaryEntries(); err != nil {
		t.Fatal(err)
	}
	all, _ := store.ListDiaryEntries(storage.ListOptions{IncludeDeleted: true})
	if len(all) != 0 {
		t.Errorf("expected empty table after wipe, got %d rows", len(all))
	}
}

func TestBulkImportDiaryEntries(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	for _, e := range []models.DiaryEntry{
		diary("keep", "2024-01-01", 100),
		diary("stale", "2024-01-02", 100),
		diary("gone", "2024-01-03", 100),
	} {
		if _, err := store.CreateDiaryEntry(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.SoftDeleteDiaryEntry("gone"); err != nil {
		t.Fatal(err)
	}

	newer := diary("stale", "2024-01-02", 150)
	newer.Description = "from backup"
	newer.Mood = 5
	older := diary("keep", "2024-01-01", 50)
	older.Description = "old copy"

	incoming := []models.DiaryEntry{newer, older, diary("new", "2024-01-04", 10)}

	summary, err := store.BulkImportDiaryEntries(incoming)
	if err != nil {
		t.Fatalf("BulkImportDiaryEntries() error = %v", err)
	}
	if summary.Created != 1 || summary.Updated != 1 || summary.Purged != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v", summary)
	}

	got, err := store.FindDiaryEntryByID("stale")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "from backup" || got.Mood != 5 || got.ModifiedAt != 150 {
		t.Errorf("newer incoming did not win: %+v", got.Entry)
	}

	got, err = store.FindDiaryEntryByID("keep")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "entry keep" {
		t.Errorf("older incoming overwrote stored row: %+v", got.Entry)
	}

	if _, err := store.FindDiaryEntryByID("gone"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("tombstone should be purged, err = %v", err)
	}

	ledger, err := store.PurgeLedger(constants.KindDiary)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ledger["gone"]; !ok {
		t.Errorf("purge ledger missing gone: %v", ledger)
	}

	// Same snapshot again changes nothing
	summary, err = store.BulkImportDiaryEntries(incoming)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Changed() {
		t.Errorf("second import changed data: %+v", summary)
	}
}

func TestChecklistEntries(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	goal := models.ChecklistEntry{
		ID:          "g1",
		Description: "run a marathon",
		GoalType:    models.GoalLongTerm,
		CreatedAt:   1,
		ModifiedAt:  1,
		Logs: []models.ProgressLog{
			{ID: "l2", ChecklistID: "g1", Timestamp: "2024-01-02T00:00:00Z", Note: "second", Type: models.LogTalk},
			{ID: "l1", ChecklistID: "g1", Timestamp: "2024-01-01T00:00:00Z", Note: "first", Type: models.LogThink},
		},
	}
	if err := store.CreateChecklistEntry(goal); err != nil {
		t.Fatalf("CreateChecklistEntry() error = %v", err)
	}

	got, err := store.FindChecklistEntryByID("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Logs) != 2 || got.Logs[0].ID != "l2" || got.Logs[1].ID != "l1" {
		t.Errorf("logs not in append order: %+v", got.Logs)
	}

	got.ThinkAboutIt = true
	got.Completed = true
	got.Logs = append(got.Logs, models.ProgressLog{ID: "l3", ChecklistID: "g1", Timestamp: "2024-01-03T00:00:00Z", Type: models.LogAct})
	if err := store.UpdateChecklistEntry(got); err != nil {
		t.Fatalf("UpdateChecklistEntry() error = %v", err)
	}

	all, err := store.ListChecklistEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].ThinkAboutIt || all[0].TalkAboutIt || !all[0].Completed || len(all[0].Logs) != 3 {
		t.Errorf("unexpected checklist state: %+v", all)
	}

	if err := store.UpdateChecklistEntry(models.ChecklistEntry{ID: "missing", GoalType: models.GoalShortTerm}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateChecklistEntry(missing) error = %v", err)
	}

	if err := store.DeleteChecklistEntry("g1"); err != nil {
		t.Fatalf("DeleteChecklistEntry() error = %v", err)
	}
	var logs int
	if err := store.GetDB().QueryRow("SELECT count(*) FROM progress_logs").Scan(&logs); err != nil {
		t.Fatal(err)
	}
	if logs != 0 {
		t.Errorf("logs should be deleted with their goal, %d remain", logs)
	}
	if err := store.DeleteChecklistEntry("g1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteChecklistEntry(missing) error = %v", err)
	}
}

func TestBulkImportChecklistIsAtomic(t *testing.T) {
	store, cleanup := setupTestSQLiteStore(t)
	defer cleanup()

	good := models.ChecklistEntry{ID: "ok", GoalType: models.GoalShortTerm, ModifiedAt: 1}
	bad := models.ChecklistEntry{
		ID: "bad", GoalType: models.GoalShortTerm, ModifiedAt: 1,
		Logs: []models.ProgressLog{{ID: "x", ChecklistID: "bad", Timestamp: "t", Type: "shout"}},
	}

	if _, err := store.BulkImportChecklistEntries([]models.ChecklistEntry{good, bad}); err == nil {
		t.Fatal("expected constraint failure")
	}

	all, err := store.ListChecklistEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("failed import left %d rows behind", len(all))
	}
}

func TestLegacyMoodUpgrade(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	init001, err := fs.ReadFile(migrations.FS, "sqlite/001_init.sql")
	if err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	runner := migration.NewRunner(db, fstest.MapFS{"001_init.sql": &fstest.MapFile{Data: init001}})
	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("failed to build legacy schema: %v", err)
	}
	_, err = db.Exec(`INSERT INTO diary_entries (id, date, description, created_at, modified_at, mood) VALUES
		('s', '2024-01-01', 'x', 1, 1, 'sad'),
		('h', '2024-01-02', 'x', 1, 1, 'happy'),
		('n', '2024-01-03', 'x', 1, 1, '5'),
		('b', '2024-01-04', 'x', 1, 1, '')`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO checklist_entries (id, description, is_completed) VALUES ('g', 'x', 1)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() on legacy database error = %v", err)
	}
	defer store.Close()

	want := map[string]int{"s": 2, "h": 4, "n": 5, "b": 3}
	for id, mood := range want {
		e, err := store.FindDiaryEntryByID(id)
		if err != nil {
			t.Fatal(err)
		}
		if e.Mood != mood {
			t.Errorf("entry %s mood = %d, want %d", id, e.Mood, mood)
		}
	}

	g, err := store.FindChecklistEntryByID("g")
	if err != nil {
		t.Fatal(err)
	}
	if !g.Completed || g.ThinkAboutIt || g.TalkAboutIt || g.ActOnIt {
		t.Errorf("legacy completion not carried over: %+v", g)
	}
}
