package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/logger"
)

const pulseModule = "agent.action.pulse"

// PulsePayload is the scheduled-trigger request body. ActionLabel is a
// pointer so validation checks presence only; an empty label still
// dispatches.
type PulsePayload struct {
	ActionLabel *string `json:"action_label" binding:"required"`
	AgentID     string  `json:"agent_id"`
}

// Pulse dispatches the pulse walker for scheduled action triggers. Some
// schedulers pass their parameters with the `name=` prefix still attached;
// those are stripped before dispatch. Reporting stays enabled so pulse runs
// leave a persisted report behind.
func (h *AgentHandlers) Pulse(c *gin.Context) {
	var payload PulsePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	actionLabel := strings.TrimPrefix(*payload.ActionLabel, "action_label=")
	agentID := strings.TrimPrefix(payload.AgentID, "agent_id=")

	ectx, err := h.sessions.OpenAuthenticatedBlocking()
	if err != nil {
		logger.Logger.Error().Err(err).Msg("unable to open execution context for pulse")
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	defer ectx.Close()

	logger.Logger.Debug().
		Str("agent_id", agentID).
		Str("action_label", actionLabel).
		Msg("dispatching pulse")

	result, err := h.registry.Spawn(ectx, pulseModule, "pulse", map[string]any{
		"action_label": actionLabel,
		"agent_id":     agentID,
		"reporting":    true,
	})
	if err != nil {
		h.sessions.Credentials().Expire()
		logger.Logger.Error().Err(err).Msg("pulse walker raised an exception")
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, result)
}
