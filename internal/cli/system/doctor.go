package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/keyring"
	"github.com/charlesinwald/mani/internal/lock"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/remote"
	"github.com/charlesinwald/mani/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(ctx *cli.Context) error
	// warn marks checks whose failure is reported but not fatal.
	warn   bool
	needDB bool
}

var checks = []check{
	{name: "Schema version", run: checkSchemaVersion, needDB: true},
	{name: "Migrations complete", run: checkMigrationsComplete, needDB: true},
	{name: "Backups present", run: checkBackupsPresent, warn: true},
	{name: "Data validation", run: checkValidation, needDB: true},
	{name: "One diary entry per date", run: checkDuplicateDates, needDB: true},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "OS keyring", run: checkKeyring, warn: true},
	{name: "Remote target", run: checkRemote},
	{name: "Process lock", run: checkLock, warn: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

// checkDBReachable opens the database. A schema mismatch still counts as
// reachable; the schema checks report it.
func checkDBReachable(ctx *cli.Context) error {
	loadErr := ctx.Backend.Load()
	if _, _, err := ctx.Backend.SchemaVersion(); err != nil {
		if loadErr != nil {
			return fmt.Errorf("failed to load database: %w", loadErr)
		}
		return err
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, err := ctx.Backend.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, err := ctx.Backend.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'mani migrate')", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'mani backup create'")
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	var errs []error
	diary, err := ctx.Backend.ListDiaryEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return fmt.Errorf("failed to read diary: %w", err)
	}
	for _, e := range diary {
		if err := models.Validate(e); err != nil {
			errs = append(errs, fmt.Errorf("diary %s: %w", e.ID, err))
		}
	}

	memoirs, err := ctx.Backend.ListMemoirEntries(storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return fmt.Errorf("failed to read memoirs: %w", err)
	}
	for _, m := range memoirs {
		if err := models.Validate(m); err != nil {
			errs = append(errs, fmt.Errorf("memoir %s: %w", m.ID, err))
		}
	}

	goals, err := ctx.Backend.ListChecklistEntries()
	if err != nil {
		return fmt.Errorf("failed to read goals: %w", err)
	}
	for _, g := range goals {
		if err := models.Validate(g); err != nil {
			errs = append(errs, fmt.Errorf("goal %s: %w", g.ID, err))
		}
	}
	return errors.Join(errs...)
}

func checkDuplicateDates(ctx *cli.Context) error {
	diary, err := ctx.Backend.ListDiaryEntries(storage.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to read diary: %w", err)
	}
	seen := make(map[string]string, len(diary))
	for _, e := range diary {
		if other, ok := seen[e.Date]; ok {
			return fmt.Errorf("entries %s and %s share date %s", other, e.ID, e.Date)
		}
		seen[e.Date] = e.ID
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Clock()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; passcode and remote secrets cannot be stored")
	}
	return nil
}

func checkRemote(ctx *cli.Context) error {
	if !ctx.Config.Remote.Enabled() {
		return nil
	}
	rc, err := ctx.Config.RemoteTarget()
	if err != nil {
		return err
	}
	// builds the client only; nothing is sent
	_, err = remote.New(context.Background(), rc)
	return err
}

func checkLock(ctx *cli.Context) error {
	l, err := lock.Acquire(lock.Path(ctx.Config.Dir))
	if err != nil {
		return err
	}
	return l.Release()
}
