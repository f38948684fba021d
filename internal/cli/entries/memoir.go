package entries

import (
	"github.com/charlesinwald/mani/internal/cli"
)

// Memoirs take the same flags as diary entries but any number may share a
// date.
type MemoirAddCmd struct {
	Text string `arg:"" optional:"" help:"Memoir text. Opens an editor form when omitted."`
	Date string `short:"d" help:"Memoir date (YYYY-MM-DD, today, yesterday)." default:"today"`
	Fields
}

func (c *MemoirAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return add(ctx, memoirs(store), c.Date, c.Text, c.Fields)
}

type MemoirEditCmd struct {
	Ref  string  `arg:"" help:"Memoir ID or date."`
	Text *string `short:"t" help:"New memoir text."`
	Date *string `short:"d" help:"Move the memoir to another date."`
	Fields
}

func (c *MemoirEditCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return edit(ctx, memoirs(store), c.Ref, c.Text, c.Date, c.Fields)
}

type MemoirDeleteCmd struct {
	Ref string `arg:"" help:"Memoir ID or date."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *MemoirDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return remove(ctx, memoirs(store), c.Ref, c.Yes)
}

type MemoirListCmd struct {
	From  string `help:"Earliest date to show (YYYY-MM-DD)."`
	To    string `help:"Latest date to show (YYYY-MM-DD)."`
	Limit int    `short:"n" help:"Show at most this many memoirs." default:"20"`
}

func (c *MemoirListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return list(ctx, memoirs(store), c.From, c.To, c.Limit)
}

type MemoirShowCmd struct {
	Ref string `arg:"" help:"Memoir ID or date."`
}

func (c *MemoirShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
	}
	store, err := ctx.Journal()
	if err != nil {
		return err
	}
	return show(ctx, memoirs(store), c.Ref)
}
