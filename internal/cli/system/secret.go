package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/keyring"
	"github.com/charlesinwald/mani/internal/storage/postgres"
)

// secretItems maps the names accepted on the command line to keyring slots.
var secretItems = map[string]keyring.Item{
	"database": keyring.Database,
	"remote":   keyring.Remote,
}

// SecretSetCmd stores a secret in the OS keyring
type SecretSetCmd struct {
	Item  string `arg:"" enum:"database,remote" help:"Which secret to store (database|remote)."`
	Value string `arg:"" help:"PostgreSQL connection string, or the WebDAV password / S3 secret key."`
}

func (cmd *SecretSetCmd) Run(ctx *cli.Context) error {
	if cmd.Item == "database" {
		if !strings.HasPrefix(cmd.Value, "postgres://") &&
			!strings.HasPrefix(cmd.Value, "postgresql://") &&
			!strings.Contains(cmd.Value, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if _, err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(secretItems[cmd.Item], cmd.Value); err != nil {
		return err
	}
	ctx.Printf("✓ %s secret stored in OS keyring\n", cmd.Item)
	if cmd.Item == "database" {
		ctx.Println("  Set database: keyring in the config file to use it")
	}
	return nil
}

// SecretGetCmd prints a stored secret with any password masked
type SecretGetCmd struct {
	Item string `arg:"" enum:"database,remote" help:"Which secret to show (database|remote)."`
}

func (cmd *SecretGetCmd) Run(ctx *cli.Context) error {
	value, err := keyring.Get(secretItems[cmd.Item])
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s secret found in keyring. Use 'mani secret set %s' to store one", cmd.Item, cmd.Item)
		}
		return err
	}
	if cmd.Item == "database" {
		ctx.Println(maskPassword(value))
	} else {
		ctx.Println(strings.Repeat("*", 8))
	}
	return nil
}

// SecretDeleteCmd removes a secret from the OS keyring
type SecretDeleteCmd struct {
	Item string `arg:"" enum:"database,remote" help:"Which secret to delete (database|remote)."`
}

func (cmd *SecretDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.Delete(secretItems[cmd.Item]); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s secret found in keyring", cmd.Item)
		}
		return err
	}
	ctx.Printf("✓ %s secret deleted from OS keyring\n", cmd.Item)
	return nil
}

// SecretStatusCmd checks the availability of the OS keyring
type SecretStatusCmd struct{}

func (cmd *SecretStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println("✓ OS keyring is available")
	for _, name := range []string{"database", "remote"} {
		if _, err := keyring.Get(secretItems[name]); err == nil {
			ctx.Printf("✓ %s secret is stored\n", name)
		} else if errors.Is(err, keyring.ErrNotFound) {
			ctx.Printf("ℹ No %s secret stored\n", name)
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
