package credstore

import (
	"sync"

	"github.com/coldread-dev/coldread/internal/cli/account"
)

// MemoryStore keeps credentials in process memory. It is not durable and is
// meant for tests and one-shot runs.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	user  *account.Profile
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) GetToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

func (m *MemoryStore) SetToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) GetUser() (*account.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, ErrNotFound
	}
	return m.user.Clone(), nil
}

func (m *MemoryStore) SetUser(user *account.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user.Clone()
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}
