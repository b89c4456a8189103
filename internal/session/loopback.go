package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/TrueSelph/jvserve/internal/logger"
)

// Loopback calls this server's own authenticated walker routes with the
// cached bearer token. Used by scheduled triggers that want the full request
// pipeline (auth middleware included) instead of in-process dispatch.
type Loopback struct {
	auth    *Authenticator
	creds   *CredentialStore
	client  *http.Client
	baseURL string
}

// NewLoopback builds a loopback caller against baseURL (the server's own
// listen address).
func NewLoopback(auth *Authenticator, creds *CredentialStore, baseURL string) *Loopback {
	return &Loopback{
		auth:    auth,
		creds:   creds,
		client:  &http.Client{},
		baseURL: baseURL,
	}
}

// Interact posts an interact call through the server's public route. Any
// failure yields an empty result; a 401 additionally clears the cached
// expiration so the next call re-authenticates.
func (l *Loopback) Interact(ctx context.Context, agentID, utterance, sessionID string) map[string]any {
	return l.post(ctx, "/walker/interact", map[string]any{
		"agent_id":   agentID,
		"utterance":  utterance,
		"session_id": sessionID,
	})
}

// Pulse posts a pulse call through the server's public route.
func (l *Loopback) Pulse(ctx context.Context, actionLabel, agentID string) map[string]any {
	return l.post(ctx, "/walker/pulse", map[string]any{
		"action_label": actionLabel,
		"agent_id":     agentID,
	})
}

func (l *Loopback) post(ctx context.Context, path string, body map[string]any) map[string]any {
	if _, err := l.auth.Acquire(ctx); err != nil {
		logger.Logger.Error().Err(err).Str("path", path).Msg("loopback call skipped, no credential")
		return map[string]any{}
	}
	token := l.creds.Peek().Token
	if token == "" {
		return map[string]any{}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return map[string]any{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return map[string]any{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := l.client.Do(req)
	if err != nil {
		l.creds.Expire()
		logger.Logger.Error().Err(err).Str("path", path).Msg("loopback call failed")
		return map[string]any{}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return map[string]any{}
		}
		if reports, ok := result["reports"].(map[string]any); ok {
			return reports
		}
		return result
	case http.StatusUnauthorized:
		l.creds.Expire()
		return map[string]any{}
	default:
		return map[string]any{}
	}
}
