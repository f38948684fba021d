package entries

import (
	"fmt"

	"github.com/charlesinwald/mani/internal/cli"
)

type EntryAddCmd struct {
	Text string `arg:"" optional:"" help:"Entry text. Opens an editor form when omitted."`
	Date string `short:"d" help:"Entry date (YYYY-MM-DD, today, yesterday)." default:"today"`
	Fields
}

func (c *EntryAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return add(ctx, diary(store), c.Date, c.Text, c.Fields)
}

type EntryEditCmd struct {
	Ref  string  `arg:"" help:"Entry date or ID."`
	Text *string `short:"t" help:"New entry text."`
	Date *string `short:"d" help:"Move the entry to another date."`
	Fields
}

func (c *EntryEditCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return edit(ctx, diary(store), c.Ref, c.Text, c.Date, c.Fields)
}

type EntryDeleteCmd struct {
	Ref string `arg:"" help:"Entry date or ID."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *EntryDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return remove(ctx, diary(store), c.Ref, c.Yes)
}

type EntryListCmd struct {
	From  string `help:"Earliest date to show (YYYY-MM-DD)."`
	To    string `help:"Latest date to show (YYYY-MM-DD)."`
	Limit int    `short:"n" help:"Show at most this many entries." default:"20"`
}

func (c *EntryListCmd) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	return nil
}

func (c *EntryListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return list(ctx, diary(store), c.From, c.To, c.Limit)
}

type EntryShowCmd struct {
	Ref string `arg:"" default:"today" help:"Entry date or ID."`
}

func (c *EntryShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	ref := c.Ref
	if ref == "today" || ref == "yesterday" {
		if ref, err = ctx.ParseDate(ref); err != nil {
			return err
		}
	}
	return show(ctx, diary(store), ref)
}
