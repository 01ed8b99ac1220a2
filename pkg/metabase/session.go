package metabase

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Credentials identifies a Metabase instance and the login used against it.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// TokenStore persists refreshed session tokens so they survive restarts.
type TokenStore interface {
	SetSessionToken(name string, token string) error
}

// SessionManager caches one short-lived session token per named connection.
// Concurrent refreshes for the same connection are last-writer-wins.
type SessionManager struct {
	mu     sync.Mutex
	tokens map[string]string
	store  TokenStore
}

func NewSessionManager(store TokenStore) *SessionManager {
	return &SessionManager{
		tokens: map[string]string{},
		store:  store,
	}
}

// Seed primes the cache with a previously persisted token. An already
// cached token wins over the seed; it may be fresher.
func (m *SessionManager) Seed(name string, token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens[name] == "" {
		m.tokens[name] = token
	}
}

// Session binds a named connection's credential to the call policy: use the
// cached token, re-authenticate once on expiry, never retry twice.
func (m *SessionManager) Session(name string, creds Credentials) *Session {
	return &Session{manager: m, name: name, creds: creds}
}

func (m *SessionManager) token(name string, creds Credentials) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token := m.tokens[name]; token != "" {
		return token, nil
	}
	return m.refreshLocked(name, creds)
}

func (m *SessionManager) refresh(name string, creds Credentials) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(name, creds)
}

func (m *SessionManager) refreshLocked(name string, creds Credentials) (string, error) {
	token, err := Authenticate(creds.URL, creds.Username, creds.Password)
	if err != nil {
		return "", err
	}

	m.tokens[name] = token
	if m.store != nil {
		if err := m.store.SetSessionToken(name, token); err != nil {
			return "", fmt.Errorf("failed to persist session token for '%s': %w", name, err)
		}
	}

	return token, nil
}

// Session is an authenticated view of one Metabase instance.
type Session struct {
	manager *SessionManager
	name    string
	creds   Credentials
}

func (s *Session) BaseURL() string {
	return strings.TrimSuffix(s.creds.URL, "/")
}

func (s *Session) Get(endpoint string) (json.RawMessage, error) {
	return s.call(func(c *Client) (json.RawMessage, error) {
		return c.Get(endpoint)
	})
}

func (s *Session) Post(endpoint string, body interface{}) (json.RawMessage, error) {
	return s.call(func(c *Client) (json.RawMessage, error) {
		return c.Post(endpoint, body)
	})
}

func (s *Session) Put(endpoint string, body interface{}) (json.RawMessage, error) {
	return s.call(func(c *Client) (json.RawMessage, error) {
		return c.Put(endpoint, body)
	})
}

// call performs one backend call. A 401 triggers exactly one
// re-authentication with the stored credential and one retry of the same
// call; a second 401 surfaces as an authentication failure.
func (s *Session) call(fn func(*Client) (json.RawMessage, error)) (json.RawMessage, error) {
	token, err := s.manager.token(s.name, s.creds)
	if err != nil {
		return nil, err
	}

	data, err := fn(NewClient(s.creds.URL, token))
	if !IsUnauthorized(err) {
		return data, err
	}

	token, err = s.manager.refresh(s.name, s.creds)
	if err != nil {
		return nil, err
	}

	data, err = fn(NewClient(s.creds.URL, token))
	if IsUnauthorized(err) {
		statusErr, _ := AsStatusError(err)
		return nil, &AuthenticationError{Message: statusErr.Body}
	}

	return data, err
}
