package transfer

import (
	"fmt"
	"io"
	"os"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/snapshot"
)

type ImportCmd struct {
	File   string `arg:"" help:"Snapshot file to merge, or - for stdin."`
	DryRun bool   `short:"n" help:"Show what would change without writing."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	data, err := c.read(ctx)
	if err != nil {
		return err
	}
	incoming, err := snapshot.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	if c.DryRun {
		preview, err := snapshot.PlanImport(ctx.Backend, incoming)
		if err != nil {
			return fmt.Errorf("failed to plan import: %w", err)
		}
		for _, change := range preview.Changes {
			ctx.Println(change.String())
		}
		if len(preview.Changes) > 0 {
			ctx.Println()
		}
		printResult(ctx, "Would merge", preview.Result)
		return nil
	}

	l, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer l.Release()

	ctx.PerformAutomaticBackup()

	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	res, err := store.Import(incoming.ImportSet())
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	printResult(ctx, "Merged", res)
	return nil
}

func (c *ImportCmd) read(ctx *cli.Context) ([]byte, error) {
	if c.File == "-" {
		in := ctx.In
		if in == nil {
			in = os.Stdin
		}
		return io.ReadAll(in)
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

func printResult(ctx *cli.Context, verb string, res journal.ImportResult) {
	ctx.Printf("%s diary:     %s\n", verb, res.Diary)
	ctx.Printf("%s memoirs:   %s\n", verb, res.Memoirs)
	ctx.Printf("%s goals:     %s\n", verb, res.Checklist)
}
