package system

import (
	"errors"
	"strings"
	"testing"

	"github.com/charlesinwald/mani/internal/cli/clitest"
	"github.com/charlesinwald/mani/internal/gate"
)

func withNewPasscode(t *testing.T, passcode string) {
	t.Helper()
	orig := promptNew
	promptNew = func() (string, error) { return passcode, nil }
	t.Cleanup(func() { promptNew = orig })
}

func TestPasscodeLifecycle(t *testing.T) {
	env := clitest.New(t)
	withNewPasscode(t, "2468")

	if err := (&PasscodeStatusCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "No passcode set") {
		t.Errorf("status output = %q", env.Out.String())
	}

	if err := (&PasscodeSetCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := env.Ctx.Gate.Check("2468"); err != nil {
		t.Errorf("stored passcode does not match: %v", err)
	}

	env.Out.Reset()
	if err := (&PasscodeStatusCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "Passcode is set") {
		t.Errorf("status output = %q", env.Out.String())
	}

	env.Ctx.Gate = gate.New(gate.WithPrompter(func(string) (string, error) { return "2468", nil }))
	if err := (&PasscodeClearCmd{}).Run(env.Ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if enabled, _ := env.Ctx.Gate.Enabled(); enabled {
		t.Error("passcode still set after clear")
	}
}

func TestPasscodeClearNeedsPasscode(t *testing.T) {
	env := clitest.New(t)
	if err := env.Ctx.Gate.Set("1357"); err != nil {
		t.Fatal(err)
	}
	env.Ctx.Gate = gate.New(gate.WithPrompter(func(string) (string, error) { return "0000", nil }))

	if err := (&PasscodeClearCmd{}).Run(env.Ctx); !errors.Is(err, gate.ErrWrongPasscode) {
		t.Errorf("expected ErrWrongPasscode, got %v", err)
	}
	if enabled, _ := env.Ctx.Gate.Enabled(); !enabled {
		t.Error("passcode cleared without the right passcode")
	}
}

func TestPasscodeClearWhenUnset(t *testing.T) {
	env := clitest.New(t)

	if err := (&PasscodeClearCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "No passcode is set.") {
		t.Errorf("output = %q", env.Out.String())
	}
}

func TestPasscodeSetTooShort(t *testing.T) {
	env := clitest.New(t)
	withNewPasscode(t, "12")

	if err := (&PasscodeSetCmd{}).Run(env.Ctx); !errors.Is(err, gate.ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}
