package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"prhealth/internal/model"
)

// ErrNotLoggedIn is returned by Load when nothing has been persisted.
var ErrNotLoggedIn = errors.New("not logged in")

// Record is the persisted session. Role is a display cache only; it is
// re-derived from AccessToken on every load.
type Record struct {
	AccessToken string     `json:"access_token"`
	Role        model.Role `json:"role,omitempty"`
}

// Persister keeps a session across program runs.
type Persister interface {
	Save(Record) error
	Load() (*Record, error)
	Delete() error
}

// FileStore persists the session as a JSON file readable only by the owner.
type FileStore struct {
	path string
}

var _ Persister = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return os.WriteFile(s.path, data, 0600)
}

func (s *FileStore) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &rec, nil
}

func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

// memoryPersister keeps nothing beyond the process; used when no session
// file is configured.
type memoryPersister struct {
	rec *Record
}

func (m *memoryPersister) Save(rec Record) error { m.rec = &rec; return nil }

func (m *memoryPersister) Load() (*Record, error) {
	if m.rec == nil {
		return nil, ErrNotLoggedIn
	}
	r := *m.rec
	return &r, nil
}

func (m *memoryPersister) Delete() error { m.rec = nil; return nil }
