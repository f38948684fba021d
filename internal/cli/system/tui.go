package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if err := ctx.Unlock(); err != nil {
		return err
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
	m := tui.New(store, tui.WithClock(ctx.Clock))
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
