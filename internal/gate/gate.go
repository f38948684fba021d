// Package gate guards interactive commands behind a local device passcode.
// Only a bcrypt hash is stored, in the OS keyring.
package gate

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"golang.org/x/crypto/bcrypt"

	"github.com/charlesinwald/mani/internal/keyring"
	"github.com/charlesinwald/mani/internal/logger"
)

const (
	MinPasscodeLength = 4
	maxAttempts       = 3
	cost              = 10
)

var (
	ErrWrongPasscode = errors.New("wrong passcode")
	ErrTooShort      = fmt.Errorf("passcode must be at least %d characters", MinPasscodeLength)
)

// secrets is the slice of the keyring the gate needs.
type secrets interface {
	Get(item keyring.Item) (string, error)
	Set(item keyring.Item, value string) error
	Delete(item keyring.Item) error
}

type osKeyring struct{}

func (osKeyring) Get(item keyring.Item) (string, error)     { return keyring.Get(item) }
func (osKeyring) Set(item keyring.Item, value string) error { return keyring.Set(item, value) }
func (osKeyring) Delete(item keyring.Item) error            { return keyring.Delete(item) }

// Prompter asks for a passcode.
type Prompter func(title string) (string, error)

type Gate struct {
	secrets secrets
	prompt  Prompter
}

type Option func(*Gate)

func WithPrompter(p Prompter) Option {
	return func(g *Gate) { g.prompt = p }
}

func New(opts ...Option) *Gate {
	g := &Gate{secrets: osKeyring{}, prompt: huhPrompt}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled reports whether a passcode is set.
func (g *Gate) Enabled() (bool, error) {
	_, err := g.secrets.Get(keyring.Passcode)
	if errors.Is(err, keyring.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (g *Gate) Set(passcode string) error {
	if len(passcode) < MinPasscodeLength {
		return ErrTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), cost)
	if err != nil {
		return fmt.Errorf("failed to hash passcode: %w", err)
	}
	return g.secrets.Set(keyring.Passcode, string(hash))
}

// Clear removes the passcode. Clearing an unset passcode is not an error.
func (g *Gate) Clear() error {
	if err := g.secrets.Delete(keyring.Passcode); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// Check compares passcode with the stored hash. With no passcode set every
// input passes.
func (g *Gate) Check(passcode string) error {
	hash, err := g.secrets.Get(keyring.Passcode)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)); err != nil {
		return ErrWrongPasscode
	}
	return nil
}

// Unlock prompts until the passcode matches or attempts run out. It returns
// at once when no passcode is set.
func (g *Gate) Unlock() error {
	enabled, err := g.Enabled()
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		input, err := g.prompt("Passcode")
		if err != nil {
			return err
		}
		err = g.Check(input)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWrongPasscode) {
			return err
		}
		logger.Warn("wrong passcode", "attempt", attempt)
	}
	return ErrWrongPasscode
}

func huhPrompt(title string) (string, error) {
	var value string
	err := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(&value).
		Run()
	return value, err
}

// PromptNew asks for a new passcode twice.
func PromptNew() (string, error) {
	var first, second string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("New passcode").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if len(s) < MinPasscodeLength {
					return ErrTooShort
				}
				return nil
			}).
			Value(&first),
		huh.NewInput().
			Title("Repeat passcode").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if s != first {
					return errors.New("passcodes do not match")
				}
				return nil
			}).
			Value(&second),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return first, nil
}
