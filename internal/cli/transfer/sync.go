package transfer

import (
	"context"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/remote"
)

type SyncCmd struct {
	PushOnly bool `help:"Overwrite the remote snapshot without merging it first."`
}

func (c *SyncCmd) Run(ctx *cli.Context) error {
	l, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer l.Release()

	bg := context.Background()
	target, err := ctx.Remote(bg)
	if err != nil {
		return err
	}

	if c.PushOnly {
		n, err := remote.Push(bg, target, ctx.Backend, ctx.Clock())
		if err != nil {
			return err
		}
		ctx.Printf("Pushed %d bytes to %s\n", n, target)
		return nil
	}

	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	report, err := remote.Sync(bg, target, store, ctx.Backend, ctx.Clock())
	if err != nil {
		return err
	}
	if report.Pulled {
		printResult(ctx, "Merged", report.Merged)
	} else {
		ctx.Printf("No snapshot at %s yet\n", target)
	}
	ctx.Printf("Pushed %d bytes to %s\n", report.Pushed, target)
	return nil
}
