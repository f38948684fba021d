package backups

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charlesinwald/mani/internal/backup"
	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/remote"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	info, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("✓ Backup created: %s\n", info.Name())
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), ctx.Config.Backup.Max)
	for _, b := range backups {
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), b.Name(), float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	backupPath := mgr.Resolve(c.BackupFile)
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup file not found: %s", backupPath)
	}

	l, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer l.Release()

	if !c.Yes {
		ctx.Println("⚠️  WARNING: This will replace your current database with the backup.")
		ctx.Println("A backup of your current database will be created before restoring.")
		ctx.Printf("\nRestore from: %s\n", backupPath)
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Backend.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	safety, err := mgr.Restore(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if err := ctx.Backend.Load(); err != nil {
		return fmt.Errorf("restored database does not load: %w", err)
	}

	ctx.Println("✓ Database restored successfully!")
	if safety.Path != "" {
		ctx.Printf("  Previous database saved as %s\n", safety.Name())
	}
	return nil
}

type BackupScheduleCmd struct {
	Spec string `help:"Cron expression or descriptor, overriding backup.schedule."`
	Once bool   `help:"Run one scheduled backup now and exit."`
}

func (c *BackupScheduleCmd) Run(ctx *cli.Context) error {
	mgr, err := ctx.Backups()
	if err != nil {
		return err
	}
	spec := c.Spec
	if spec == "" {
		spec = ctx.Config.Backup.Schedule
	}

	var jobs []backup.Job
	if ctx.Config.Remote.Enabled() {
		jobs = append(jobs, func(jctx context.Context, _ backup.Info) error {
			target, err := ctx.Remote(jctx)
			if err != nil {
				return err
			}
			_, err = remote.Push(jctx, target, ctx.Backend, ctx.Clock())
			return err
		})
	}

	sched, err := backup.NewScheduler(mgr, spec, jobs...)
	if err != nil {
		return err
	}

	if c.Once {
		if err := sched.RunOnce(context.Background()); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		ctx.Println("✓ Scheduled backup completed")
		return nil
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.Printf("Backing up on schedule %q into %s (Ctrl+C to stop)\n", sched.Spec(), mgr.Dir())
	return sched.Run(runCtx)
}
