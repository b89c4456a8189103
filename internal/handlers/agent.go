package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/runtime"
	"github.com/TrueSelph/jvserve/internal/session"
)

// AgentHandlers serves the walker dispatch surface: direct interact,
// webhook-keyed exec, multipart action exec and the scheduled pulse path.
type AgentHandlers struct {
	sessions *session.Manager
	registry *runtime.Registry
	// secret seeds the webhook routing-key cipher alphabet.
	secret string
}

func NewAgentHandlers(sessions *session.Manager, registry *runtime.Registry, webhookSecret string) *AgentHandlers {
	return &AgentHandlers{
		sessions: sessions,
		registry: registry,
		secret:   webhookSecret,
	}
}

// RegisterRoutes registers the public dispatch routes. The action walker
// route is protected and registered separately by the server behind its auth
// middleware.
func (h *AgentHandlers) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/interact", h.Interact)
	api.GET("/webhook/:key", h.WebhookExec)
	api.POST("/webhook/:key", h.WebhookExec)
}

// RegisterProtectedRoutes registers the routes that require bearer
// authentication.
func (h *AgentHandlers) RegisterProtectedRoutes(api *gin.RouterGroup) {
	api.POST("/action/walker", h.ActionWalkerExec)
	api.POST("/pulse", h.Pulse)
	// Loopback aliases used by scheduled triggers calling back through the
	// full request pipeline.
	api.POST("/walker/interact", h.Interact)
	api.POST("/walker/pulse", h.Pulse)
}
