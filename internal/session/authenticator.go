package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/TrueSelph/jvserve/internal/config"
	"github.com/TrueSelph/jvserve/internal/logger"
)

var (
	// ErrConfiguration means the service credentials are not configured; no
	// network call is attempted.
	ErrConfiguration = errors.New("service email and password are not configured")
	// ErrAuthentication means the login/registration flow completed without
	// producing a usable token.
	ErrAuthentication = errors.New("authentication flow exhausted without a usable token")
	// ErrTransport wraps network faults during the auth calls. The cached
	// expiration is cleared so the next call starts fresh.
	ErrTransport = errors.New("auth service unreachable")
)

// Authenticator owns the login-or-register flow against the server's own auth
// endpoints. One flow instance runs the three network calls strictly in
// sequence; concurrent cache misses may each run their own flow (no single
// flight), with the store's atomic replace keeping the cache consistent.
type Authenticator struct {
	store    *CredentialStore
	client   *http.Client
	baseURL  string
	email    string
	password string
}

// NewAuthenticator builds the authenticator around an injectable credential
// store. The HTTP client carries no timeout of its own; callers that need one
// impose it through the context.
func NewAuthenticator(cfg config.AuthConfig, store *CredentialStore) *Authenticator {
	return &Authenticator{
		store:    store,
		client:   &http.Client{},
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		password: cfg.Password,
	}
}

// loginResponse is the auth service's success payload boundary.
type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		RootID     string `json:"root_id"`
		Expiration int64  `json:"expiration"`
	} `json:"user"`
}

// Acquire returns a usable credential, refreshing it through
// login -> register -> retry-login when the cache has expired. A cache hit
// performs zero network calls.
func (a *Authenticator) Acquire(ctx context.Context) (Credential, error) {
	if cred, ok := a.store.Get(); ok {
		return cred, nil
	}

	if a.email == "" || a.password == "" {
		logger.Logger.Error().Msg("JIVAS_USER and or JIVAS_PASSWORD environment variable is not set")
		return Credential{}, ErrConfiguration
	}

	status, cred, err := a.postCredentials(ctx, "/user/login")
	if err != nil {
		return Credential{}, a.transportFault(err)
	}
	if status == http.StatusOK {
		a.store.Replace(cred)
		return cred, nil
	}

	logger.Logger.Info().Int("status", status).Msg("login failed, attempting registration")
	status, _, err = a.postCredentials(ctx, "/user/register")
	if err != nil {
		return Credential{}, a.transportFault(err)
	}
	if status != http.StatusCreated {
		logger.Logger.Error().Int("status", status).Msg("registration failed")
		return Credential{}, ErrAuthentication
	}

	logger.Logger.Info().Str("email", a.email).Msg("registration successful, attempting login again")
	status, cred, err = a.postCredentials(ctx, "/user/login")
	if err != nil {
		return Credential{}, a.transportFault(err)
	}
	if status != http.StatusOK {
		logger.Logger.Error().Int("status", status).Msg("login failed after registration")
		return Credential{}, ErrAuthentication
	}

	a.store.Replace(cred)
	return cred, nil
}

// AcquireBlocking is the synchronous driver around the same flow, for call
// sites without a request context (scheduled and background triggers).
func (a *Authenticator) AcquireBlocking() (Credential, error) {
	return a.Acquire(context.Background())
}

func (a *Authenticator) transportFault(err error) error {
	a.store.Expire()
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func (a *Authenticator) postCredentials(ctx context.Context, path string) (int, Credential, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    a.email,
		"password": a.password,
	})
	if err != nil {
		return 0, Credential{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, Credential{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, Credential{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, Credential{}, nil
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, Credential{}, err
	}
	return resp.StatusCode, Credential{
		RootID:    parsed.User.RootID,
		Token:     parsed.Token,
		ExpiresAt: parsed.User.Expiration,
	}, nil
}
