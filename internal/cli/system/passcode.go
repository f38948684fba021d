package system

import (
	"fmt"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/gate"
)

// promptNew asks for a new passcode; replaced in tests.
var promptNew = gate.PromptNew

type PasscodeSetCmd struct{}

func (cmd *PasscodeSetCmd) Run(ctx *cli.Context) error {
	// changing a passcode needs the current one
	if err := ctx.Unlock(); err != nil {
		return err
	}
	passcode, err := promptNew()
	if err != nil {
		return err
	}
	if err := ctx.Gate.Set(passcode); err != nil {
		return fmt.Errorf("failed to set passcode: %w", err)
	}
	ctx.Println("✓ Passcode set. mani will ask for it before showing your journal.")
	return nil
}

type PasscodeClearCmd struct{}

func (cmd *PasscodeClearCmd) Run(ctx *cli.Context) error {
	enabled, err := ctx.Gate.Enabled()
	if err != nil {
		return err
	}
	if !enabled {
		ctx.Println("No passcode is set.")
		return nil
	}
	if err := ctx.Unlock(); err != nil {
		return err
	}
	if err := ctx.Gate.Clear(); err != nil {
		return fmt.Errorf("failed to clear passcode: %w", err)
	}
	ctx.Println("✓ Passcode cleared")
	return nil
}

type PasscodeStatusCmd struct{}

func (cmd *PasscodeStatusCmd) Run(ctx *cli.Context) error {
	enabled, err := ctx.Gate.Enabled()
	if err != nil {
		return err
	}
	if enabled {
		ctx.Println("✓ Passcode is set")
	} else {
		ctx.Println("ℹ No passcode set")
	}
	return nil
}
