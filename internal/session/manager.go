package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Manager owns the process-wide Store. It is the only code that writes to
// it: on login, on restore at start-up, and on logout or a failed guard.
type Manager struct {
	store   *Store
	persist Persister
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager uses an in-memory persister when p is nil.
func NewManager(store *Store, p Persister, logger *slog.Logger) *Manager {
	if p == nil {
		p = &memoryPersister{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, persist: p, logger: logger, now: time.Now}
}

// Store exposes the read side for screens and the API client.
func (m *Manager) Store() *Store { return m.store }

// Start decodes a freshly issued credential and installs it. On error the
// store is left as it was.
func (m *Manager) Start(credential string) (Claims, error) {
	claims, err := Decode(credential)
	if err != nil {
		return Claims{}, err
	}
	m.store.Set(credential, claims.Role)
	if err := m.persist.Save(Record{AccessToken: credential, Role: claims.Role}); err != nil {
		m.logger.Warn("failed to persist session", "err", err)
	}
	m.logger.Info("session started", "role", claims.Role, "sub", claims.Subject)
	return claims, nil
}

// Restore loads a persisted credential. A missing, unreadable or expired
// record leaves the store empty and is not an error for the caller to act on
// beyond showing the login screen.
func (m *Manager) Restore() (Claims, bool) {
	rec, err := m.persist.Load()
	if err != nil {
		if !errors.Is(err, ErrNotLoggedIn) {
			m.logger.Warn("failed to load session", "err", err)
		}
		return Claims{}, false
	}
	claims, err := Decode(rec.AccessToken)
	if err != nil {
		m.logger.Warn("discarding persisted session", "err", err)
		m.End()
		return Claims{}, false
	}
	if claims.Expired(m.now()) {
		m.logger.Info("persisted session expired", "expires_at", claims.ExpiresAt)
		m.End()
		return Claims{}, false
	}
	if rec.Role != claims.Role {
		m.logger.Warn("cached role does not match credential", "cached", rec.Role, "claim", claims.Role)
	}
	m.store.Set(rec.AccessToken, claims.Role)
	return claims, true
}

// End clears the store and the persisted record.
func (m *Manager) End() {
	m.store.Clear()
	if err := m.persist.Delete(); err != nil {
		m.logger.Warn("failed to delete session", "err", err)
	}
}

// Claims re-derives the claims of the current credential.
func (m *Manager) Claims() (Claims, error) {
	cred, ok := m.store.Credential()
	if !ok {
		return Claims{}, ErrNotLoggedIn
	}
	c, err := Decode(cred)
	if err != nil {
		return Claims{}, fmt.Errorf("current session: %w", err)
	}
	return c, nil
}

// Now is the clock used for expiry checks.
func (m *Manager) Now() time.Time { return m.now() }

// SetClock replaces the clock; tests use it to pin expiry.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }
