// Package config loads mani's settings from a YAML file with MANI_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/keyring"
	"github.com/charlesinwald/mani/internal/remote"
)

type Backup struct {
	Max      int    `mapstructure:"max"`
	Schedule string `mapstructure:"schedule"`
}

type Config struct {
	// Database is a SQLite file path or a postgres:// connection string.
	Database string        `mapstructure:"database"`
	Debug    bool          `mapstructure:"debug"`
	Backup   Backup        `mapstructure:"backup"`
	Remote   remote.Config `mapstructure:"remote"`

	// File is the config file that was read. Dir holds it along with logs
	// and the lockfile.
	File string `mapstructure:"-"`
	Dir  string `mapstructure:"-"`
}

// DatabaseFromKeyring as the database setting reads the Postgres
// connection string from the OS keyring.
const DatabaseFromKeyring = "keyring"

// IsPostgres reports whether Database names a Postgres server.
func (c *Config) IsPostgres() bool {
	return c.Database == DatabaseFromKeyring ||
		strings.HasPrefix(c.Database, "postgres://") || strings.HasPrefix(c.Database, "postgresql://")
}

// Connection returns the database path or connection string, resolving
// DatabaseFromKeyring.
func (c *Config) Connection() (string, error) {
	if c.Database != DatabaseFromKeyring {
		return c.Database, nil
	}
	conn, err := keyring.Get(keyring.Database)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("database is set to %q but no connection string is stored, run 'mani secret set database'", DatabaseFromKeyring)
	}
	return conn, err
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// DefaultFile is ~/.config/mani/config.yaml.
func DefaultFile() string {
	return filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigName+"."+constants.DefaultConfigType)
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("database", filepath.Join(dir, constants.DefaultDBName))
	v.SetDefault("debug", false)
	v.SetDefault("backup.max", constants.MaxBackups)
	v.SetDefault("backup.schedule", constants.DefaultBackupSchedule)
	v.SetDefault("remote.type", constants.RemoteNone)
	for _, key := range []string{"endpoint", "path", "user", "bucket", "region", "access_key_id", "key"} {
		v.SetDefault("remote."+key, "")
	}
}

// Load reads path, writing a file with the defaults first when none exists.
// An empty path means DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile()
	}
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(constants.DefaultConfigType)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	cfg := &Config{File: path, Dir: dir}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if cfg.Database, err = ExpandHome(cfg.Database); err != nil {
		return nil, err
	}
	if !cfg.IsPostgres() && !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(dir, cfg.Database)
	}
	if cfg.Remote.Type == constants.RemoteLocalFS {
		if cfg.Remote.Path, err = ExpandHome(cfg.Remote.Path); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Remote.Type {
	case constants.RemoteNone, constants.RemoteLocalFS, constants.RemoteWebDAV, constants.RemoteS3:
	default:
		return fmt.Errorf("remote.type %q is not one of %s, %s, %s", c.Remote.Type,
			constants.RemoteLocalFS, constants.RemoteWebDAV, constants.RemoteS3)
	}
	if c.Backup.Max < 1 {
		return fmt.Errorf("backup.max must be at least 1, got %d", c.Backup.Max)
	}
	return nil
}

// RemoteTarget returns the remote settings with the secret filled in from
// MANI_REMOTE_SECRET or, failing that, the OS keyring. A missing secret is
// left empty; anonymous WebDAV and the AWS default chain need none.
func (c *Config) RemoteTarget() (remote.Config, error) {
	rc := c.Remote
	if s := os.Getenv(constants.RemoteSecretEnv); s != "" {
		rc.Secret = s
		return rc, nil
	}
	s, err := keyring.Get(keyring.Remote)
	switch {
	case err == nil:
		rc.Secret = s
	case errors.Is(err, keyring.ErrNotFound):
	default:
		return rc, err
	}
	return rc, nil
}
