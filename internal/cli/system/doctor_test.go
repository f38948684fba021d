package system

import (
	"strings"
	"testing"

	"github.com/charlesinwald/mani/internal/cli/clitest"
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/lock"
	"github.com/charlesinwald/mani/internal/remote"
)

func TestDoctorCmd_HealthyDB(t *testing.T) {
	env := clitest.New(t)

	// missing backups is a warning, not a failure
	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Errorf("doctor command failed on healthy database: %v\n%s", err, env.Out.String())
	}
	out := env.Out.String()
	for _, want := range []string{"✓ Database reachable: OK", "⚠ Backups present: WARNING", "✓ Data validation: OK", "All diagnostics passed!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorCmd_WithBackup(t *testing.T) {
	env := clitest.New(t)
	mgr, err := env.Ctx.Backups()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Create(); err != nil {
		t.Fatal(err)
	}

	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "✓ Backups present: OK") {
		t.Errorf("output = %s", env.Out.String())
	}
}

func TestDoctorCmd_InvalidData(t *testing.T) {
	env := clitest.New(t)
	db := env.Backend.GetDB()
	_, err := db.Exec(`INSERT INTO diary_entries (id, date, description, created_at, modified_at, deleted, mood, latitude, longitude, weather, temperature, goal_type)
		VALUES ('bad', '2024-13-45', '', 1, 1, 0, 3, 0, 0, '', '', '')`)
	if err != nil {
		t.Fatal(err)
	}

	if err := (&DoctorCmd{}).Run(env.Ctx); err == nil {
		t.Error("expected failure for invalid row")
	}
	if !strings.Contains(env.Out.String(), "❌ Data validation: FAIL") {
		t.Errorf("output = %s", env.Out.String())
	}
}

func TestDoctorCmd_BadRemote(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.Remote = remote.Config{Type: constants.RemoteWebDAV}

	if err := (&DoctorCmd{}).Run(env.Ctx); err == nil {
		t.Error("expected failure for incomplete remote config")
	}
	if !strings.Contains(env.Out.String(), "❌ Remote target: FAIL") {
		t.Errorf("output = %s", env.Out.String())
	}
}

func TestDoctorCmd_LockHeld(t *testing.T) {
	env := clitest.New(t)
	held, err := lock.Acquire(lock.Path(env.Ctx.Config.Dir))
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	if err := (&DoctorCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("a held lock is only a warning: %v", err)
	}
	if !strings.Contains(env.Out.String(), "⚠ Process lock: WARNING") {
		t.Errorf("output = %s", env.Out.String())
	}
}
