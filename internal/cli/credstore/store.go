// Package credstore persists the session token and the cached user snapshot
// for one execution context. The web context and the extension context each
// own an independent Store; nothing is shared between them.
package credstore

import (
	"errors"

	"github.com/coldread-dev/coldread/internal/cli/account"
)

// Fixed storage keys, identical in every context.
const (
	TokenKey = "session_token"
	UserKey  = "session_user"
)

// ErrNotFound is returned when no token (or no cached user) is stored.
var ErrNotFound = errors.New("not found")

// Store defines the credential storage contract.
// All operations are idempotent; Clear on an empty store succeeds.
type Store interface {
	GetToken() (string, error)
	SetToken(token string) error
	GetUser() (*account.Profile, error)
	SetUser(user *account.Profile) error
	// Clear removes both the token and the cached user.
	Clear() error
}

// HasToken reports whether s currently holds a non-empty token.
func HasToken(s Store) (bool, error) {
	token, err := s.GetToken()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return token != "", nil
}
