package transfer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/snapshot"
)

type ExportCmd struct {
	File string `arg:"" optional:"" help:"Snapshot file to write, or - for stdout. Defaults to mani-snapshot.json."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}

	s, err := snapshot.Build(ctx.Backend, ctx.Clock())
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	data, err := snapshot.Encode(s)
	if err != nil {
		return err
	}

	if c.File == "-" {
		ctx.Printf("%s\n", data)
		return nil
	}

	file := c.File
	if file == "" {
		file = constants.SnapshotFileName
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	counts := s.Counts()
	ctx.Printf("Exported %d diary entries, %d memoirs, %d goals to %s\n",
		counts[constants.KindDiary][0], counts[constants.KindMemoir][0], counts[constants.KindChecklist][0], file)
	return nil
}
