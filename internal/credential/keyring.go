package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/nhle/jira-dashboard/internal/model"
	"github.com/nhle/jira-dashboard/internal/store"
)

const serviceName = "jiradash"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/jiradash/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("jiradash-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyringSessionStore keeps the connection id in the OS keyring.
type KeyringSessionStore struct {
	ring keyring.Keyring
}

var _ store.SessionStore = (*KeyringSessionStore)(nil)

// NewKeyringSessionStore opens the system keyring.
func NewKeyringSessionStore() (*KeyringSessionStore, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return &KeyringSessionStore{ring: ring}, nil
}

// NewKeyringSessionStoreWith wraps an already opened keyring.
func NewKeyringSessionStoreWith(ring keyring.Keyring) *KeyringSessionStore {
	return &KeyringSessionStore{ring: ring}
}

// Load returns the stored connection id.
func (k *KeyringSessionStore) Load(_ context.Context) (string, bool, error) {
	item, err := k.ring.Get(model.SessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential %q: %w", model.SessionKey, err)
	}
	return string(item.Data), true, nil
}

// Save stores the connection id.
func (k *KeyringSessionStore) Save(_ context.Context, id string) error {
	err := k.ring.Set(keyring.Item{
		Key:   model.SessionKey,
		Data:  []byte(id),
		Label: "jiradash connection",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", model.SessionKey, err)
	}
	return nil
}

// Clear removes the connection id. A missing entry is not an error.
func (k *KeyringSessionStore) Clear(_ context.Context) error {
	err := k.ring.Remove(model.SessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", model.SessionKey, err)
	}
	return nil
}
