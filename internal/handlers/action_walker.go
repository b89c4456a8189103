package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/logger"
)

// ActionWalkerExec executes a named walker exposed by an action, fed from a
// multipart form that may carry JSON args and file attachments. Reporting is
// left at the walker default (enabled) so action walkers persist their
// reports, unlike the interact and webhook paths which suppress it.
func (h *AgentHandlers) ActionWalkerExec(c *gin.Context) {
	agentID := c.PostForm("agent_id")
	moduleRoot := c.PostForm("module_root")
	walker := c.PostForm("walker")

	attrs := map[string]any{"agent_id": agentID}

	if args := c.PostForm("args"); args != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(args), &parsed); err != nil {
			logger.Logger.Error().Err(err).Msg("invalid args JSON on action walker call")
			c.JSON(http.StatusInternalServerError, "internal server error")
			return
		}
		for name, value := range parsed {
			attrs[name] = value
		}
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		uploads := form.File["attachments"]
		if len(uploads) > 0 {
			attachments := make([]map[string]any, 0, len(uploads))
			for _, upload := range uploads {
				content, err := readUpload(upload)
				if err != nil {
					logger.Logger.Error().Err(err).Str("attachment", upload.Filename).Msg("failed to read attachment")
					c.JSON(http.StatusInternalServerError, "internal server error")
					return
				}
				attachments = append(attachments, map[string]any{
					"name":    upload.Filename,
					"type":    upload.Header.Get("Content-Type"),
					"content": content,
				})
			}
			attrs["files"] = attachments
		}
	}

	if agentID == "" || walker == "" || moduleRoot == "" {
		logger.Logger.Error().Msg("missing parameters")
		c.JSON(http.StatusUnauthorized, "missing required parameters")
		return
	}

	ectx, err := h.sessions.OpenAuthenticated(c.Request.Context())
	if err != nil {
		logger.Logger.Error().Err(err).Str("walker", walker).Msg("unable to execute walker")
		c.JSON(http.StatusInternalServerError, "unable to complete request")
		return
	}
	defer ectx.Close()

	module := moduleRoot + "." + walker
	result, err := h.registry.Spawn(ectx, module, walker, attrs)
	if err != nil {
		h.sessions.Credentials().Expire()
		logger.Logger.Error().Err(err).Str("walker", walker).Msg("action walker raised an exception")
		c.JSON(http.StatusInternalServerError, "unable to complete request")
		return
	}

	c.JSON(http.StatusOK, result)
}

func readUpload(upload *multipart.FileHeader) ([]byte, error) {
	f, err := upload.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
