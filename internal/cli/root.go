package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charlesinwald/mani/internal/backup"
	"github.com/charlesinwald/mani/internal/config"
	"github.com/charlesinwald/mani/internal/constants"
	clierrors "github.com/charlesinwald/mani/internal/errors"
	"github.com/charlesinwald/mani/internal/gate"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/lock"
	"github.com/charlesinwald/mani/internal/logger"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/remote"
	"github.com/charlesinwald/mani/internal/storage"
)

// Backend is a storage.Backend that also manages its own schema.
type Backend interface {
	storage.Backend
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
}

type Context struct {
	Config  *config.Config
	Backend Backend
	Gate    *gate.Gate

	// Out and In default to the process stdout and stdin.
	Out io.Writer
	In  io.Reader
	// Now defaults to time.Now.
	Now func() time.Time

	journal   *journal.Store
	reader    *bufio.Reader
	readerSrc io.Reader
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) Clock() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Confirm asks a y/N question on In.
func (c *Context) Confirm(question string) (bool, error) {
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	if c.reader == nil || c.readerSrc != in {
		c.reader = bufio.NewReader(in)
		c.readerSrc = in
	}
	c.Printf("%s [y/N]: ", question)
	response, err := c.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Journal returns the hydrated store, creating it on first use.
func (c *Context) Journal() (*journal.Store, error) {
	if c.journal != nil {
		return c.journal, nil
	}
	var opts []journal.Option
	if c.Now != nil {
		opts = append(opts, journal.WithClock(c.Now))
	}
	store := journal.New(c.Backend, opts...)
	if err := store.Hydrate(); err != nil {
		return nil, fmt.Errorf("failed to load journal: %w", err)
	}
	c.journal = store
	return store, nil
}

// Unlock asks for the passcode when one is set.
func (c *Context) Unlock() error {
	if c.Gate == nil {
		return nil
	}
	if err := c.Gate.Unlock(); err != nil {
		return clierrors.WithExitCode(err, clierrors.ExitUsage)
	}
	return nil
}

// Lock takes the process lock for commands that rewrite the database.
func (c *Context) Lock() (*lock.Lock, error) {
	l, err := lock.Acquire(lock.Path(c.Config.Dir))
	if errors.Is(err, lock.ErrLocked) {
		return nil, clierrors.WithExitCode(err, clierrors.ExitLocked)
	}
	return l, err
}

// Backups returns the backup manager. Backups only exist for the
// on-device database.
func (c *Context) Backups() (*backup.Manager, error) {
	if c.Config.IsPostgres() {
		return nil, errors.New("backups are only available for the SQLite database")
	}
	opts := []backup.Option{backup.WithKeep(c.Config.Backup.Max)}
	if c.Now != nil {
		opts = append(opts, backup.WithClock(c.Now))
	}
	return backup.NewManager(c.Backend.GetConfigPath(), opts...), nil
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.Backups()
	if err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Remote opens the configured remote target.
func (c *Context) Remote(ctx context.Context) (remote.Target, error) {
	if !c.Config.Remote.Enabled() {
		return nil, errors.New("no remote configured, set remote.type in " + c.Config.File)
	}
	rc, err := c.Config.RemoteTarget()
	if err != nil {
		return nil, err
	}
	return remote.New(ctx, rc)
}

// ParseDate accepts YYYY-MM-DD, "today" and "yesterday". Empty means today.
func (c *Context) ParseDate(s string) (string, error) {
	now := c.Clock()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return now.Format(constants.DateFormat), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(constants.DateFormat), nil
	}
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t.Format(constants.DateFormat), nil
}

func ParseGoalType(s string) (models.GoalType, error) {
	g, ok := models.ParseGoalType(s)
	if !ok {
		return "", fmt.Errorf("invalid goal type %q (shortterm|longterm|lifetime)", s)
	}
	return g, nil
}

// FormatTime renders a millisecond timestamp in local time.
func FormatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
