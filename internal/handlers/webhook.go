package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/logger"
	"github.com/TrueSelph/jvserve/internal/webhookkey"
)

// webhookPlaceholder is the generic success-shaped body returned whenever a
// webhook call cannot be dispatched. Malformed-key detail is logged
// internally, never revealed to the caller.
const webhookPlaceholder = "200 OK"

// WebhookExec executes the walker addressed by the opaque routing key in the
// path. GET calls pass query parameters as call arguments; POST calls parse
// the JSON body instead.
func (h *AgentHandlers) WebhookExec(c *gin.Context) {
	params := map[string]any{}
	for name, values := range c.Request.URL.Query() {
		if len(values) == 1 {
			params[name] = values[0]
		} else {
			params[name] = values
		}
	}
	if c.Request.Method == http.MethodPost {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			logger.Logger.Warn().Err(err).Msg("missing or invalid JSON served via webhook call")
		} else {
			params = body
		}
	}

	key, ok := webhookkey.Decode(h.secret, c.Param("key"))
	if !ok {
		logger.Logger.Error().Msg("malformed webhook key")
		c.String(http.StatusOK, webhookPlaceholder)
		return
	}

	ectx, err := h.sessions.OpenAuthenticated(c.Request.Context())
	if err != nil {
		logger.Logger.Error().Err(err).Str("walker", key.Walker).Msg("unable to execute walker")
		c.String(http.StatusOK, webhookPlaceholder)
		return
	}
	defer ectx.Close()

	module := key.ModuleRoot + "." + key.Walker
	result, err := h.registry.Spawn(ectx, module, key.Walker, map[string]any{
		"agent_id": key.AgentID,
		"params":   params,
		// The webhook caller receives the direct return value; automatic
		// report persistence is suppressed on this path.
		"reporting": false,
	})
	if err != nil {
		h.sessions.Credentials().Expire()
		logger.Logger.Error().Err(err).Str("walker", key.Walker).Msg("webhook walker raised an exception")
		c.String(http.StatusOK, webhookPlaceholder)
		return
	}

	switch value := result.(type) {
	case nil:
		c.String(http.StatusOK, webhookPlaceholder)
	case string:
		var parsed any
		err := json.Unmarshal([]byte(value), &parsed)
		if err == nil {
			c.JSON(http.StatusOK, parsed)
			return
		}
		// A non-JSON string still goes back to the caller quoted, but the
		// cached expiration is cleared the same as any other post-dispatch
		// fault.
		h.sessions.Credentials().Expire()
		logger.Logger.Error().Err(err).Str("walker", key.Walker).Msg("webhook walker returned a non-JSON string")
		c.JSON(http.StatusOK, value)
	default:
		c.JSON(http.StatusOK, value)
	}
}
