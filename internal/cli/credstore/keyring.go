package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/coldread-dev/coldread/internal/cli/account"
)

// ExtensionService is the keychain namespace used by the extension context.
const ExtensionService = "coldread-extension"

// KeyringStore persists credentials in the OS keychain/credential manager
// under a namespaced service.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store bound to the given keychain service.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// NewExtensionStore returns the keychain store used by the extension context.
func NewExtensionStore() *KeyringStore {
	return NewKeyringStore(ExtensionService)
}

// GetToken retrieves the session token from the keychain
func (k *KeyringStore) GetToken() (string, error) {
	token, err := keyring.Get(k.service, TokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

// SetToken persists the session token in the keychain
func (k *KeyringStore) SetToken(token string) error {
	if err := keyring.Set(k.service, TokenKey, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetUser returns the cached profile. A snapshot that no longer parses is
// treated as absent.
func (k *KeyringStore) GetUser() (*account.Profile, error) {
	raw, err := keyring.Get(k.service, UserKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var user account.Profile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, ErrNotFound
	}
	return &user, nil
}

// SetUser caches the profile next to the token
func (k *KeyringStore) SetUser(user *account.Profile) error {
	if user == nil {
		return k.delete(UserKey)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := keyring.Set(k.service, UserKey, string(data)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Clear removes the token and the cached profile
func (k *KeyringStore) Clear() error {
	if err := k.delete(TokenKey); err != nil {
		return err
	}
	return k.delete(UserKey)
}

func (k *KeyringStore) delete(key string) error {
	if err := keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
