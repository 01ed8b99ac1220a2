package metabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeBackend is a minimal Metabase: /api/session issues incrementing
// tokens, /api/database accepts only the most recently issued one.
type fakeBackend struct {
	authCalls     int
	databaseCalls int
	currentToken  string
	rejectAll     bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		b.authCalls++
		b.currentToken = fmt.Sprintf("token-%d", b.authCalls)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": b.currentToken})
	})
	mux.HandleFunc("/api/database", func(w http.ResponseWriter, r *http.Request) {
		b.databaseCalls++
		if b.rejectAll || r.Header.Get("X-Metabase-Session") != b.currentToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthenticated"}`)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	return mux
}

func TestSessionAuthenticatesEagerlyWithoutToken(t *testing.T) {
	backend := &fakeBackend{}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	manager := NewSessionManager(nil)
	session := manager.Session("default", Credentials{URL: ts.URL, Username: "u", Password: "p"})

	data, err := session.Get("/database")

	assert.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, 1, backend.authCalls)
	assert.Equal(t, 1, backend.databaseCalls)
}

func TestSessionRetriesOnceOnExpiredToken(t *testing.T) {
	backend := &fakeBackend{}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	manager := NewSessionManager(nil)
	// A stale token forces a 401 on the first call
	backend.currentToken = "fresh"
	manager.Seed("default", "stale")

	session := manager.Session("default", Credentials{URL: ts.URL, Username: "u", Password: "p"})
	data, err := session.Get("/database")

	assert.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Equal(t, 1, backend.authCalls, "exactly one re-authentication")
	assert.Equal(t, 2, backend.databaseCalls, "exactly one retry of the same call")
}

func TestSessionSecondUnauthorizedSurfacesAuthFailure(t *testing.T) {
	backend := &fakeBackend{rejectAll: true}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	manager := NewSessionManager(nil)
	manager.Seed("default", "stale")

	session := manager.Session("default", Credentials{URL: ts.URL, Username: "u", Password: "p"})
	_, err := session.Get("/database")

	assert.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.Equal(t, 1, backend.authCalls)
	assert.Equal(t, 2, backend.databaseCalls, "no retry after the second 401")
}

func TestAuthenticateRejectedCredential(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":{"password":"did not match stored password"}}`)
	}))
	defer ts.Close()

	_, err := Authenticate(ts.URL, "u", "wrong")

	assert.Error(t, err)
	assert.True(t, IsAuthenticationError(err))
	assert.Contains(t, err.Error(), "did not match stored password")
}

type recordingTokenStore struct {
	tokens map[string]string
}

func (s *recordingTokenStore) SetSessionToken(name string, token string) error {
	s.tokens[name] = token
	return nil
}

func TestSessionManagerPersistsRefreshedTokens(t *testing.T) {
	backend := &fakeBackend{}
	ts := httptest.NewServer(backend.handler())
	defer ts.Close()

	store := &recordingTokenStore{tokens: map[string]string{}}
	manager := NewSessionManager(store)

	session := manager.Session("prod", Credentials{URL: ts.URL, Username: "u", Password: "p"})
	_, err := session.Get("/database")

	assert.NoError(t, err)
	assert.Equal(t, "token-1", store.tokens["prod"])
}

func TestStatusErrorPreservesBackendBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"database is required"}`)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, "token").Post("/card", map[string]string{})

	statusErr, ok := AsStatusError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, `{"message":"database is required"}`, statusErr.Body)
	assert.False(t, IsUnauthorized(err))
}
