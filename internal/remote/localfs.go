package remote

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalFS keeps the snapshot in a directory, typically one synced by
// another tool.
type LocalFS struct {
	file string
}

func NewLocalFS(cfg Config) (*LocalFS, error) {
	if cfg.Path == "" {
		return nil, errors.New("localfs: remote.path is required")
	}
	return &LocalFS{file: filepath.Join(cfg.Path, cfg.objectName())}, nil
}

func (l *LocalFS) Pull(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(l.file)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, errors.Wrap(err, "localfs")
}

// Push writes through a temporary file so readers never see a partial
// snapshot.
func (l *LocalFS) Push(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(l.file), 0o700); err != nil {
		return errors.Wrap(err, "localfs")
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.file), ".mani-snapshot-*")
	if err != nil {
		return errors.Wrap(err, "localfs")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "localfs")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "localfs")
	}
	return errors.Wrap(os.Rename(tmp.Name(), l.file), "localfs")
}

func (l *LocalFS) String() string { return "file://" + l.file }
