// Package lock keeps a single mani process writing to the database at a
// time.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/logger"
)

// writeGrace is how long an empty or unreadable lockfile counts as held,
// covering the window between its creation and the pid being written.
const writeGrace = 2 * time.Second

var (
	ErrLocked = errors.New("another mani process is running")

	findProcessFunc = ps.FindProcess
	getpid          = os.Getpid
)

type Lock struct {
	path string
}

// Path returns the lockfile location inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, constants.LockfileName)
}

// Acquire creates the lockfile at path holding "pid|executable". A
// lockfile left by a process that no longer runs, or whose pid now belongs
// to another program, is stale and replaced.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d|%s", getpid(), executable())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		pid, held := holder(path)
		if held {
			return nil, fmt.Errorf("%w (pid %d, lockfile %s)", ErrLocked, pid, path)
		}
		logger.Warn("removing stale lockfile", "path", path, "pid", pid)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, fmt.Errorf("%w (lockfile %s)", ErrLocked, path)
}

// holder reports the pid in the lockfile and whether that process is a
// live mani.
func holder(path string) (int, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, beingWritten(path)
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	if len(parts) == 2 && parts[1] != "" && process.Executable() != parts[1] {
		return pid, false
	}
	return pid, true
}

func beingWritten(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < writeGrace
}

func executable() string {
	if p, err := findProcessFunc(getpid()); err == nil && p != nil {
		return p.Executable()
	}
	return constants.AppName
}

// Release removes the lockfile. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
