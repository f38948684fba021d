// Package remote moves snapshot files to and from a sync target.
package remote

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/charlesinwald/mani/internal/constants"
)

// ErrNotFound is returned by Pull when the target holds no snapshot yet.
var ErrNotFound = errors.New("no snapshot on remote")

// Target stores one snapshot file.
type Target interface {
	Pull(ctx context.Context) ([]byte, error)
	Push(ctx context.Context, data []byte) error
	String() string
}

// Config selects and configures a target. Secret is the WebDAV password or
// S3 secret key and never comes from the config file.
type Config struct {
	Type        string `mapstructure:"type"`
	Endpoint    string `mapstructure:"endpoint"`
	Path        string `mapstructure:"path"`
	User        string `mapstructure:"user"`
	Bucket      string `mapstructure:"bucket"`
	Region      string `mapstructure:"region"`
	AccessKeyID string `mapstructure:"access_key_id"`
	Key         string `mapstructure:"key"`
	Secret      string `mapstructure:"-"`
}

// Enabled reports whether a target type is configured.
func (c Config) Enabled() bool {
	return c.Type != constants.RemoteNone
}

// objectName is the file name under Path, or Key when set.
func (c Config) objectName() string {
	if c.Key != "" {
		return c.Key
	}
	return constants.SnapshotFileName
}

func (c Config) objectPath() string {
	return joinKey(c.Path, c.objectName())
}

func joinKey(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// New builds the target named by cfg.Type.
func New(ctx context.Context, cfg Config) (Target, error) {
	switch cfg.Type {
	case constants.RemoteLocalFS:
		return NewLocalFS(cfg)
	case constants.RemoteWebDAV:
		return NewWebDAV(cfg)
	case constants.RemoteS3:
		return NewS3(ctx, cfg)
	case constants.RemoteNone:
		return nil, errors.New("no remote configured, set remote.type in the config file")
	default:
		return nil, errors.Errorf("unknown remote type %q (want %s, %s or %s)",
			cfg.Type, constants.RemoteLocalFS, constants.RemoteWebDAV, constants.RemoteS3)
	}
}
