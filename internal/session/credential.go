package session

import (
	"sync"
	"time"
)

// Credential is the server's own cached identity: the identity root, bearer
// token and expiration obtained from the auth service. It is replaced
// wholesale on every successful login; the three fields are never updated
// independently.
type Credential struct {
	RootID    string
	Token     string
	ExpiresAt int64 // epoch seconds
}

// Usable reports whether the credential can still authenticate calls at now.
func (c Credential) Usable(now time.Time) bool {
	return c.Token != "" && c.ExpiresAt > now.Unix()
}

// CredentialStore holds the single process-wide credential. Replace is atomic
// so no reader ever observes a token paired with the wrong expiration;
// concurrent refreshes may still race, last writer wins.
type CredentialStore struct {
	mu   sync.Mutex
	cred Credential
}

// Get returns the cached credential when it is still usable.
func (s *CredentialStore) Get() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cred.Usable(time.Now()) {
		return Credential{}, false
	}
	return s.cred, true
}

// Peek returns the cached credential regardless of expiration. Used by
// callers that need the raw token for loopback calls.
func (s *CredentialStore) Peek() Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// Replace installs a new credential, all three fields together.
func (s *CredentialStore) Replace(cred Credential) {
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
}

// Expire clears the expiration so the next acquisition performs a fresh
// login. The identity root is kept; a stale root falls back harmlessly at
// context-open time.
func (s *CredentialStore) Expire() {
	s.mu.Lock()
	s.cred.ExpiresAt = 0
	s.mu.Unlock()
}
