package backups

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charlesinwald/mani/internal/cli/clitest"
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/lock"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/remote"
	"github.com/charlesinwald/mani/internal/storage"
)

func addEntry(t *testing.T, env *clitest.Env, date string) {
	t.Helper()
	e := models.DiaryEntry{Entry: models.Entry{ID: "id-" + date, Date: date, Description: date, Mood: 3}}
	if created, err := env.Backend.CreateDiaryEntry(e); err != nil || !created {
		t.Fatalf("create entry: %v (created=%v)", err, created)
	}
}

func TestBackupCreateAndList(t *testing.T) {
	env := clitest.New(t)

	if err := (&BackupCreateCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(env.Out.String(), "Backup created: mani-20240310-") {
		t.Errorf("create output = %q", env.Out.String())
	}

	env.Out.Reset()
	if err := (&BackupListCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "1 total, keeping most recent 14") {
		t.Errorf("list output = %q", env.Out.String())
	}
}

func TestBackupListCmd_Empty(t *testing.T) {
	env := clitest.New(t)

	if err := (&BackupListCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "No backups found.") {
		t.Errorf("list output = %q", env.Out.String())
	}
}

func TestBackupRestoreCmd(t *testing.T) {
	env := clitest.New(t)
	addEntry(t, env, "2024-03-01")
	if err := (&BackupCreateCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	addEntry(t, env, "2024-03-02")

	mgr, _ := env.Ctx.Backups()
	backups, err := mgr.List()
	if err != nil || len(backups) != 1 {
		t.Fatalf("backups = %v, %v", backups, err)
	}

	env.Input("y")
	if err := (&BackupRestoreCmd{BackupFile: backups[0].Name()}).Run(env.Ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	rows, err := env.Backend.ListDiaryEntries(storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Date != "2024-03-01" {
		t.Errorf("restored rows = %+v", rows)
	}
	if !strings.Contains(env.Out.String(), "Previous database saved as") {
		t.Errorf("restore output = %q", env.Out.String())
	}
	if _, err := os.Stat(lock.Path(env.Ctx.Config.Dir)); !os.IsNotExist(err) {
		t.Error("lock not released after restore")
	}
}

func TestBackupRestoreCmd_Cancelled(t *testing.T) {
	env := clitest.New(t)
	if err := (&BackupCreateCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	mgr, _ := env.Ctx.Backups()
	backups, _ := mgr.List()
	addEntry(t, env, "2024-03-05")

	env.Input("n")
	if err := (&BackupRestoreCmd{BackupFile: backups[0].Path}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	rows, _ := env.Backend.ListDiaryEntries(storage.ListOptions{})
	if len(rows) != 1 {
		t.Errorf("cancelled restore changed the database: %+v", rows)
	}
}

func TestBackupRestoreCmd_Missing(t *testing.T) {
	env := clitest.New(t)

	if err := (&BackupRestoreCmd{BackupFile: "mani-19990101-000000.db", Yes: true}).Run(env.Ctx); err == nil {
		t.Error("expected error for missing backup")
	}
}

func TestBackupRestoreCmd_Locked(t *testing.T) {
	env := clitest.New(t)
	if err := (&BackupCreateCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	mgr, _ := env.Ctx.Backups()
	backups, _ := mgr.List()

	held, err := lock.Acquire(lock.Path(env.Ctx.Config.Dir))
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	err = (&BackupRestoreCmd{BackupFile: backups[0].Path, Yes: true}).Run(env.Ctx)
	if !errors.Is(err, lock.ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestBackupsUnavailableForPostgres(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.Database = "postgres://mani@localhost/mani"

	if err := (&BackupCreateCmd{}).Run(env.Ctx); err == nil {
		t.Error("expected error for postgres database")
	}
}

func TestBackupScheduleCmd_Once(t *testing.T) {
	env := clitest.New(t)
	shared := t.TempDir()
	env.Ctx.Config.Remote = remote.Config{Type: constants.RemoteLocalFS, Path: shared}
	addEntry(t, env, "2024-03-01")

	if err := (&BackupScheduleCmd{Once: true}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	mgr, _ := env.Ctx.Backups()
	if backups, _ := mgr.List(); len(backups) != 1 {
		t.Errorf("expected one backup, got %d", len(backups))
	}
	if _, err := os.Stat(filepath.Join(shared, constants.SnapshotFileName)); err != nil {
		t.Errorf("snapshot not pushed after backup: %v", err)
	}
}

func TestBackupScheduleCmd_InvalidSpec(t *testing.T) {
	env := clitest.New(t)

	if err := (&BackupScheduleCmd{Spec: "every tuesday", Once: true}).Run(env.Ctx); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
