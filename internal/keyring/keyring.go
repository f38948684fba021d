// Package keyring stores mani's secrets in the OS keyring: the passcode
// hash, the remote target secret and the Postgres connection string.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/charlesinwald/mani/internal/constants"
)

var (
	ErrNotFound           = errors.New("secret not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Item names one secret slot.
type Item string

const (
	Database Item = Item(constants.KeyringDatabaseUser)
	Passcode Item = Item(constants.KeyringPasscodeUser)
	Remote   Item = Item(constants.KeyringRemoteUser)
)

func Get(item Item) (string, error) {
	v, err := keyring.Get(constants.KeyringService, string(item))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func Set(item Item, value string) error {
	if value == "" {
		return fmt.Errorf("%s secret cannot be empty", item)
	}
	if err := keyring.Set(constants.KeyringService, string(item), value); err != nil {
		return fmt.Errorf("failed to store %s secret in keyring: %w", item, err)
	}
	return nil
}

// Delete removes the secret. Deleting a missing secret returns ErrNotFound.
func Delete(item Item) error {
	if err := keyring.Delete(constants.KeyringService, string(item)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s secret from keyring: %w", item, err)
	}
	return nil
}

// IsAvailable makes a best-effort read to see whether a keyring backend
// answers at all.
func IsAvailable() bool {
	_, err := keyring.Get(constants.KeyringService, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
