package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/logger"
)

// interactModule is the built-in module the direct interact route dispatches
// into.
const interactModule = "agent.action.interact"

// InteractPayload is the direct interaction request body. AgentID and
// Utterance are pointers so validation checks presence only; empty strings
// are legal walker input.
type InteractPayload struct {
	AgentID   *string `json:"agent_id" binding:"required"`
	Utterance *string `json:"utterance" binding:"required"`
	SessionID string  `json:"session_id"`
	TTS       bool    `json:"tts"`
	Verbose   bool    `json:"verbose"`
}

// Interact dispatches the interact walker. Callers observe an empty result
// object on any failure past validation; they never see a transport error.
func (h *AgentHandlers) Interact(c *gin.Context) {
	var payload InteractPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	ectx, err := h.sessions.OpenAuthenticatedBlocking()
	if err != nil {
		logger.Logger.Error().Err(err).Msg("unable to open execution context for interact")
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	defer ectx.Close()

	logger.Logger.Debug().
		Str("agent_id", *payload.AgentID).
		Str("root", ectx.Root.ID).
		Msg("attempting to interact with agent")

	result, err := h.registry.Spawn(ectx, interactModule, "interact", map[string]any{
		"agent_id":   *payload.AgentID,
		"utterance":  *payload.Utterance,
		"session_id": payload.SessionID,
		"tts":        payload.TTS,
		"verbose":    payload.Verbose,
		"reporting":  false,
	})
	if err != nil {
		// A failed invocation may mean the cached token went stale; force a
		// fresh login on the next call.
		h.sessions.Credentials().Expire()
		logger.Logger.Error().Err(err).Msg("interact walker raised an exception")
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, result)
}
