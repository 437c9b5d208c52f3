package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/cli/account"
)

// WebStorageFileName is the web context's storage document name.
const WebStorageFileName = "web-storage.json"

// ErrCorrupt is returned by reads when the storage document is not valid
// JSON. The next write replaces the document.
var ErrCorrupt = errors.New("web storage is corrupt")

// FileStore is the web context's durable storage: a single JSON document keyed
// like the browser's local storage. Keys other than TokenKey and UserKey are
// left untouched.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger
}

// FileOption configures a FileStore
type FileOption func(*FileStore)

// WithFileLogger sets the logger used to report a discarded corrupt document
func WithFileLogger(log zerolog.Logger) FileOption {
	return func(f *FileStore) {
		f.log = log
	}
}

// NewFileStore returns a store backed by the JSON document at path.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) GetToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", err
	}

	var token string
	raw, ok := doc[TokenKey]
	if !ok || json.Unmarshal(raw, &token) != nil || token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (f *FileStore) SetToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.update(func(doc map[string]json.RawMessage) error {
		raw, err := json.Marshal(token)
		if err != nil {
			return err
		}
		doc[TokenKey] = raw
		return nil
	})
}

func (f *FileStore) GetUser() (*account.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}

	raw, ok := doc[UserKey]
	if !ok || string(raw) == "null" {
		return nil, ErrNotFound
	}

	var user account.Profile
	if err := json.Unmarshal(raw, &user); err != nil {
		// Shape changed under us; treat as absent
		return nil, ErrNotFound
	}
	return &user, nil
}

func (f *FileStore) SetUser(user *account.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.update(func(doc map[string]json.RawMessage) error {
		if user == nil {
			delete(doc, UserKey)
			return nil
		}
		raw, err := json.Marshal(user)
		if err != nil {
			return err
		}
		doc[UserKey] = raw
		return nil
	})
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.update(func(doc map[string]json.RawMessage) error {
		delete(doc, TokenKey)
		delete(doc, UserKey)
		return nil
	})
}

// load reads the document. A missing file is an empty document.
func (f *FileStore) load() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read web storage: %w", err)
	}

	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// update applies mutate to the stored document. A corrupt document is
// replaced by an empty one so the context can always sign in or out again.
func (f *FileStore) update(mutate func(doc map[string]json.RawMessage) error) error {
	doc, err := f.load()
	if errors.Is(err, ErrCorrupt) {
		f.log.Warn().Err(err).Str("path", f.path).Msg("Discarding unreadable web storage")
		doc = make(map[string]json.RawMessage)
	} else if err != nil {
		return err
	}
	if err := mutate(doc); err != nil {
		return fmt.Errorf("failed to encode web storage: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal web storage: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Write to a temp file first so a crash never leaves a half-written token
	tmp, err := os.CreateTemp(dir, ".web-storage-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write web storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set web storage permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write web storage: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace web storage: %w", err)
	}
	return nil
}
