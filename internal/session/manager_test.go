package session

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrueSelph/jvserve/internal/config"
	"github.com/TrueSelph/jvserve/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "anchors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	creds := &CredentialStore{}
	auth := NewAuthenticator(config.AuthConfig{}, creds)
	return NewManager(store, auth, creds), store
}

func TestOpenContextFallsBackToSystemRoot(t *testing.T) {
	m, _ := newTestManager(t)

	ec, err := m.OpenContext(context.Background(), "n:root:unknown", "")
	require.NoError(t, err)
	defer ec.Close()

	assert.Equal(t, storage.SystemRootID, ec.Root.ID)
	assert.Equal(t, ec.Root, ec.Entry, "entry defaults to the resolved root")
}

func TestOpenContextResolvesKnownRootAndEntry(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	root := &storage.Anchor{ID: storage.NewAnchorID(), IsRoot: true, Access: "{}"}
	root.ContentHash = storage.DeriveContentHash(root)
	require.NoError(t, store.SaveAnchor(ctx, root))

	entry := &storage.Anchor{ID: storage.NewAnchorID(), Access: "{}"}
	entry.ContentHash = storage.DeriveContentHash(entry)
	require.NoError(t, store.SaveAnchor(ctx, entry))

	ec, err := m.OpenContext(ctx, root.ID, entry.ID)
	require.NoError(t, err)
	defer ec.Close()

	assert.Equal(t, root.ID, ec.Root.ID)
	assert.Equal(t, entry.ID, ec.Entry.ID)
}

func TestOpenContextReplacesActiveContext(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	first, err := m.OpenContext(ctx, "", "")
	require.NoError(t, err)
	assert.Same(t, first, m.Active())

	second, err := m.OpenContext(ctx, "", "")
	require.NoError(t, err)
	defer second.Close()

	assert.True(t, first.Closed(), "opening a new context must close the previous one")
	assert.Same(t, second, m.Active())
}

func TestCloseIsIdempotentAndDeregisters(t *testing.T) {
	m, _ := newTestManager(t)

	ec, err := m.OpenContext(context.Background(), "", "")
	require.NoError(t, err)

	ec.Close()
	ec.Close()
	assert.True(t, ec.Closed())
	assert.Nil(t, m.Active())
}

func TestOpenContextFailsWhenStoreUnavailable(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "anchors.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	creds := &CredentialStore{}
	m := NewManager(store, NewAuthenticator(config.AuthConfig{}, creds), creds)

	_, err = m.OpenContext(context.Background(), "", "")
	require.ErrorIs(t, err, ErrContext)
}

func TestOpenAuthenticatedUsesCredentialRoot(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "anchors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	stub := newAuthStub()
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	// The auth service hands back a root that exists in the store.
	serviceRoot := &storage.Anchor{ID: storage.NewAnchorID(), IsRoot: true, Access: "{}"}
	serviceRoot.ContentHash = storage.DeriveContentHash(serviceRoot)
	require.NoError(t, store.SaveAnchor(context.Background(), serviceRoot))
	stub.rootID = serviceRoot.ID

	creds := &CredentialStore{}
	auth := NewAuthenticator(config.AuthConfig{
		BaseURL:  server.URL,
		Email:    "service@jvserve.local",
		Password: "secret",
	}, creds)
	m := NewManager(store, auth, creds)

	ec, err := m.OpenAuthenticated(context.Background())
	require.NoError(t, err)
	defer ec.Close()

	assert.Equal(t, serviceRoot.ID, ec.Root.ID)
}

func TestOpenAuthenticatedDegradesToSystemRoot(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "anchors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	creds := &CredentialStore{}
	// No email/password configured; acquisition fails with ErrConfiguration.
	m := NewManager(store, NewAuthenticator(config.AuthConfig{}, creds), creds)

	ec, err := m.OpenAuthenticated(context.Background())
	require.NoError(t, err, "credential failure must not abort context opening")
	defer ec.Close()

	assert.Equal(t, storage.SystemRootID, ec.Root.ID)
}
