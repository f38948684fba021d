// Package clitest builds command contexts over a throwaway SQLite database.
package clitest

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/config"
	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/gate"
	"github.com/charlesinwald/mani/internal/storage/sqlite"
	"github.com/charlesinwald/mani/internal/storage/sqlstore"
)

// Clock advances one second per reading so every write gets a distinct
// timestamp.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{t: start} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// Start is the first clock reading of every test context, minus a second.
var Start = time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)

type Env struct {
	Ctx     *cli.Context
	Out     *bytes.Buffer
	Backend *sqlite.Store
	Clock   *Clock
}

// Input replaces the confirmation input.
func (e *Env) Input(lines ...string) {
	e.Ctx.In = strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// New returns an initialised database in t.TempDir with the keyring mocked.
// The gate fails the test if it ever prompts.
func New(t testing.TB) *Env {
	t.Helper()
	gokeyring.MockInit()

	dir := t.TempDir()
	clock := NewClock(Start)
	cfg := &config.Config{
		Database: filepath.Join(dir, constants.DefaultDBName),
		Dir:      dir,
		File:     filepath.Join(dir, "config.yaml"),
		Backup: config.Backup{
			Max:      constants.MaxBackups,
			Schedule: constants.DefaultBackupSchedule,
		},
	}

	backend := sqlite.NewStore(cfg.Database, sqlstore.WithClock(clock.Now))
	if err := backend.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	out := &bytes.Buffer{}
	env := &Env{
		Ctx: &cli.Context{
			Config:  cfg,
			Backend: backend,
			Gate: gate.New(gate.WithPrompter(func(title string) (string, error) {
				t.Errorf("unexpected prompt %q", title)
				return "", errors.New("no prompt in tests")
			})),
			Out: out,
			Now: clock.Now,
		},
		Out:     out,
		Backend: backend,
		Clock:   clock,
	}
	env.Input()
	return env
}
