// Package auth persists CLI sessions. Each configured server gets its own
// set of session keys so that switching servers never mixes identities.
package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/auburnhacks/sponsor-portal/internal/session"
)

const service = "sponsor-portal"

// KeyringStore keeps session values in the OS keychain/credential manager
type KeyringStore struct {
	server string
}

// NewKeyringStore creates a store scoped to server
func NewKeyringStore(server string) *KeyringStore {
	return &KeyringStore{server: server}
}

// keyringKey returns a unique key per server and session key
func (k *KeyringStore) keyringKey(key string) string {
	return fmt.Sprintf("%s-%s", k.server, key)
}

func (k *KeyringStore) Get(key string) (string, bool, error) {
	v, err := keyring.Get(service, k.keyringKey(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return v, true, nil
}

func (k *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(service, k.keyringKey(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Clear removes every session key for the server. Keys that were never
// written are not an error.
func (k *KeyringStore) Clear() error {
	var errs []error
	for _, key := range session.Keys {
		if err := keyring.Delete(service, k.keyringKey(key)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
