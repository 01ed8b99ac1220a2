package connections

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	cipher, err := NewCipher("test-key")
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewStore(t.TempDir(), cipher)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Upsert("prod", "https://metabase.internal", "admin@example.com", "s3cret", "")
	assert.NoError(t, err)
	assert.Equal(t, "prod", saved.Name)
	assert.Equal(t, "https://metabase.internal", saved.URL)
	assert.NotEqual(t, "s3cret", saved.PasswordEncrypted, "password must not be stored in the clear")
	assert.False(t, saved.Connected())

	loaded, err := store.Get("prod")
	assert.NoError(t, err)
	assert.Equal(t, saved, loaded)

	credentials, err := store.Credentials(loaded)
	assert.NoError(t, err)
	assert.Equal(t, "https://metabase.internal", credentials.URL)
	assert.Equal(t, "admin@example.com", credentials.Username)
	assert.Equal(t, "s3cret", credentials.Password)
}

func TestStoreUpsertReplacesExisting(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Upsert("prod", "https://old.internal", "admin", "old-pass", "old-token")
	assert.NoError(t, err)

	second, err := store.Upsert("prod", "https://new.internal", "admin", "new-pass", "")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "upsert must keep the row, not create a second one")
	assert.Equal(t, "https://new.internal", second.URL)
	assert.Empty(t, second.SessionToken)

	all, err := store.List()
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStoreListIsSortedByName(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upsert("staging", "https://staging.internal", "u", "p", "")
	assert.NoError(t, err)
	_, err = store.Upsert("prod", "https://prod.internal", "u", "p", "")
	assert.NoError(t, err)

	all, err := store.List()
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "prod", all[0].Name)
	assert.Equal(t, "staging", all[1].Name)
}

func TestStoreGetUnknownConnection(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upsert("prod", "https://metabase.internal", "u", "p", "")
	assert.NoError(t, err)

	assert.NoError(t, store.Delete("prod"))
	assert.True(t, errors.Is(store.Delete("prod"), ErrNotFound))
}

func TestStoreSetSessionToken(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Upsert("prod", "https://metabase.internal", "u", "p", "")
	assert.NoError(t, err)

	assert.NoError(t, store.SetSessionToken("prod", "token-9"))

	loaded, err := store.Get("prod")
	assert.NoError(t, err)
	assert.True(t, loaded.Connected())
	assert.Equal(t, "token-9", loaded.SessionToken)
}
