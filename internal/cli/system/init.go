package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/snapshot"
	"github.com/charlesinwald/mani/internal/storage"
	"github.com/charlesinwald/mani/internal/storage/postgres"
	"github.com/charlesinwald/mani/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy journal data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if ctx.Config.IsPostgres() {
			return fmt.Errorf("--force only resets SQLite databases")
		}
		dbPath := ctx.Backend.GetConfigPath()
		if c.Source != "" {
			absDB, errDB := filepath.Abs(dbPath)
			absSource, errSource := filepath.Abs(c.Source)
			if errDB == nil && errSource == nil && absDB == absSource {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Backend.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			for _, suffix := range []string{"", "-wal", "-shm"} {
				if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			ctx.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Backend.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized mani storage at: %s\n", ctx.Backend.GetConfigPath())
	ctx.Printf("Config file: %s\n", ctx.Config.File)

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		res, err := c.copyFrom(ctx)
		if err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Printf("Copied %s\n", res.Total())
	}
	return nil
}

// copyFrom merges every record of the source database into the new one.
func (c *InitCmd) copyFrom(ctx *cli.Context) (journal.ImportResult, error) {
	var src storage.Backend
	if isPostgres(c.Source) {
		if _, err := postgres.ValidateConnString(c.Source); err != nil {
			return journal.ImportResult{}, err
		}
		src = postgres.New(c.Source)
	} else {
		if _, err := os.Stat(c.Source); err != nil {
			return journal.ImportResult{}, fmt.Errorf("source database not found: %s", c.Source)
		}
		src = sqlite.NewStore(c.Source)
	}
	if err := src.Load(); err != nil {
		return journal.ImportResult{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	s, err := snapshot.Build(src, ctx.Clock())
	if err != nil {
		return journal.ImportResult{}, err
	}
	store, err := ctx.Journal()
	if err != nil {
		return journal.ImportResult{}, err
	}
	return store.Import(s.ImportSet())
}

func isPostgres(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}
