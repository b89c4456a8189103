// Package main is the entry point for the jvserve dispatch server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/TrueSelph/jvserve/internal/config"
	"github.com/TrueSelph/jvserve/internal/files"
	"github.com/TrueSelph/jvserve/internal/logger"
	"github.com/TrueSelph/jvserve/internal/runtime"
	"github.com/TrueSelph/jvserve/internal/server"
	"github.com/TrueSelph/jvserve/internal/session"
	"github.com/TrueSelph/jvserve/internal/storage"
)

// CLI defines the command-line interface.
type CLI struct {
	Config string `help:"Path to YAML configuration file" type:"path"`

	Serve       ServeCmd       `cmd:"" default:"1" help:"Run the dispatch server"`
	Fileserve   FileserveCmd   `cmd:"" help:"Run the standalone CORS-open file server"`
	Createadmin CreateadminCmd `cmd:"" help:"Login or register the service user and print its identity root"`
}

// ServeCmd runs the dispatch server.
type ServeCmd struct {
	Host string `help:"Listen host (overrides config)"`
	Port int    `help:"Listen port (overrides config)"`
}

func (s *ServeCmd) Run(cfg *config.Config) error {
	if s.Host != "" {
		cfg.Server.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Server.Port = s.Port
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open anchor store: %w", err)
	}
	defer store.Close()

	fileStore, err := files.New(cfg.Files)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	creds := &session.CredentialStore{}
	auth := session.NewAuthenticator(cfg.Auth, creds)
	sessions := session.NewManager(store, auth, creds)

	// The registry starts empty; hosting applications embed the server
	// package and register their walkers before calling Run.
	registry := runtime.NewRegistry()

	// Scheduled pulses call back through the server's own protected routes.
	loopback := session.NewLoopback(auth, creds, fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port))
	pulses := session.NewPulseScheduler(loopback, time.Minute)
	pulses.Start()
	defer pulses.Stop()

	return server.New(cfg, sessions, registry, fileStore).Run()
}

// FileserveCmd runs file serving as its own process.
type FileserveCmd struct {
	Port int `default:"9000" help:"Listen port"`
}

func (f *FileserveCmd) Run(cfg *config.Config) error {
	if cfg.Files.Backend == "local" {
		if err := os.MkdirAll(cfg.Files.RootPath, 0o755); err != nil {
			return fmt.Errorf("failed to create files root %s: %w", cfg.Files.RootPath, err)
		}
	}

	fileStore, err := files.New(cfg.Files)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	cfg.Server.Port = f.Port
	return server.NewFileServer(cfg, fileStore).Run()
}

// CreateadminCmd runs the login-or-register flow once.
type CreateadminCmd struct{}

func (c *CreateadminCmd) Run(cfg *config.Config) error {
	creds := &session.CredentialStore{}
	auth := session.NewAuthenticator(cfg.Auth, creds)

	cred, err := auth.AcquireBlocking()
	if err != nil {
		return fmt.Errorf("failed to establish service user: %w", err)
	}

	fmt.Println(cred.RootID)
	return nil
}

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("jvserve"),
		kong.Description("Request dispatch and session layer for agent hosting."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	ctx.FatalIfErrorf(err)
	logger.Setup(cfg.Log.Level)

	ctx.FatalIfErrorf(ctx.Run(cfg))
}
