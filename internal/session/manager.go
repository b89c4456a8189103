package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/TrueSelph/jvserve/internal/logger"
	"github.com/TrueSelph/jvserve/internal/storage"
)

// ErrContext means the underlying execution store could not be initialized.
// Surfaced, not retried.
var ErrContext = errors.New("unable to initialize execution context")

// Manager hands out request-scoped execution contexts bound to an identity
// root, refreshing the process-wide service credential on the way.
type Manager struct {
	store storage.AnchorStore
	auth  *Authenticator
	creds *CredentialStore

	mu     sync.Mutex
	active *ExecutionContext
}

// NewManager wires the context manager to its anchor store and authenticator.
func NewManager(store storage.AnchorStore, auth *Authenticator, creds *CredentialStore) *Manager {
	return &Manager{store: store, auth: auth, creds: creds}
}

// Credentials exposes the injectable credential store so dispatch paths can
// clear the cached expiration after an invocation failure.
func (m *Manager) Credentials() *CredentialStore {
	return m.creds
}

// OpenContext builds an execution context scoped to rootID, falling back to
// the system root when the id is unknown. The optional entryID overrides the
// entry point; otherwise the resolved root is the entry. The new context
// becomes the manager's single active one, closing any predecessor.
func (m *Manager) OpenContext(ctx context.Context, rootID, entryID string) (*ExecutionContext, error) {
	system, err := m.store.EnsureSystemRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContext, err)
	}

	root := system
	if rootID != "" {
		anchor, ok, err := m.store.GetAnchor(ctx, rootID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContext, err)
		}
		if ok {
			root = anchor
		}
	}

	entry := root
	if entryID != "" {
		anchor, ok, err := m.store.GetAnchor(ctx, entryID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContext, err)
		}
		if ok {
			entry = anchor
		}
	}

	ec := &ExecutionContext{Root: root, Entry: entry}
	ec.release = func() { m.deactivate(ec) }

	m.mu.Lock()
	prev := m.active
	m.active = ec
	m.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	return ec, nil
}

// OpenAuthenticated refreshes the service credential and opens a context
// scoped to its identity root. Acquisition failures degrade to the system
// root so dispatch can still produce its well-defined empty result.
func (m *Manager) OpenAuthenticated(ctx context.Context) (*ExecutionContext, error) {
	rootID := ""
	cred, err := m.auth.Acquire(ctx)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("unable to refresh service credential")
	} else {
		rootID = cred.RootID
	}
	return m.OpenContext(ctx, rootID, "")
}

// OpenAuthenticatedBlocking is the synchronous variant for call sites without
// a request context.
func (m *Manager) OpenAuthenticatedBlocking() (*ExecutionContext, error) {
	return m.OpenAuthenticated(context.Background())
}

// Active returns the currently registered context, if any.
func (m *Manager) Active() *ExecutionContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) deactivate(ec *ExecutionContext) {
	m.mu.Lock()
	if m.active == ec {
		m.active = nil
	}
	m.mu.Unlock()
}
