package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/TrueSelph/jvserve/internal/config"
	"github.com/TrueSelph/jvserve/internal/files"
	"github.com/TrueSelph/jvserve/internal/handlers"
	"github.com/TrueSelph/jvserve/internal/logger"
	"github.com/TrueSelph/jvserve/internal/runtime"
	"github.com/TrueSelph/jvserve/internal/server/middleware"
	"github.com/TrueSelph/jvserve/internal/session"
)

// Server is the HTTP dispatch surface: the public interact and webhook
// routes, the bearer-protected action walker routes, and file serving.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
}

// New wires the full route table around the session manager, walker registry
// and file store.
func New(cfg *config.Config, sessions *session.Manager, registry *runtime.Registry, store files.FileStore) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	agent := handlers.NewAgentHandlers(sessions, registry, cfg.Webhook.SecretKey)
	agent.RegisterRoutes(engine.Group("/"))

	protected := engine.Group("/")
	protected.Use(middleware.BearerAuth(middleware.StaticKeyValidator(
		cfg.Auth.ActionAPIKey,
		func() string { return sessions.Credentials().Peek().Token },
	)))
	agent.RegisterProtectedRoutes(protected)

	if store != nil {
		fileGroup := engine.Group("/files")
		fileGroup.Use(cors.Default())
		handlers.NewFileHandlers(store).RegisterRoutes(fileGroup)
	}

	return &Server{cfg: cfg, engine: engine}
}

// NewFileServer builds the standalone CORS-open file server used when file
// serving runs as its own process.
func NewFileServer(cfg *config.Config, store files.FileStore) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger(), cors.Default())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handlers.NewFileHandlers(store).RegisterRoutes(engine.Group("/files"))

	return &Server{cfg: cfg, engine: engine}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run blocks serving HTTP on the configured address.
func (s *Server) Run() error {
	addr := s.cfg.Server.Addr()
	logger.Logger.Info().Str("addr", addr).Msg("starting jvserve dispatch server")
	return s.engine.Run(addr)
}
