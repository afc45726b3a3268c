package session

import (
	"sync"

	"prhealth/internal/model"
)

// Reader is the read-only view of the session handed to screens and to the
// API client.
type Reader interface {
	Credential() (string, bool)
	Role() (model.Role, bool)
}

// Store holds the current credential and its role. The zero value is an
// empty store.
type Store struct {
	mu         sync.RWMutex
	credential string
	role       model.Role
}

var _ Reader = (*Store)(nil)

func NewStore() *Store { return &Store{} }

// Set replaces the whole session. Callers derive role from the credential.
func (s *Store) Set(credential string, role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.role = role
}

func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential != ""
}

// Role reports absent whenever there is no credential, so a stale role can
// never outlive its token.
func (s *Store) Role() (model.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == "" {
		return "", false
	}
	return s.role, s.role != ""
}

// Snapshot reads credential and role together.
func (s *Store) Snapshot() (string, model.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == "" {
		return "", "", false
	}
	return s.credential, s.role, true
}

// Clear drops every field under a single lock.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	s.role = ""
}
