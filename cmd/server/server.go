package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/avtrackd/internal/api"
	"github.com/martinsuchenak/avtrackd/internal/config"
	"github.com/martinsuchenak/avtrackd/internal/log"
	"github.com/martinsuchenak/avtrackd/internal/mcp"
	"github.com/martinsuchenak/avtrackd/internal/netplan"
	"github.com/martinsuchenak/avtrackd/internal/storage"
	"github.com/martinsuchenak/avtrackd/internal/worker"
)

// ServerConfig holds configuration for running the server
type ServerConfig struct {
	Config      *config.Config
	Store       storage.Storage
	APIHandler  *api.Handler
	MCPServer   *mcp.Server
	Snapshotter *worker.Snapshotter
}

// RunServer starts the avtrackd server with the given configuration
func RunServer(cfg *ServerConfig) error {
	mux := http.NewServeMux()

	// API routes
	cfg.APIHandler.RegisterRoutes(mux)

	// MCP endpoint
	mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())

	// Apply middleware
	var handler http.Handler = mux
	if cfg.Config.IsAPIAuthEnabled() {
		handler = api.AuthMiddleware(cfg.Config.APIAuthToken, handler)
	}
	handler = api.SecurityHeadersMiddleware(handler)

	server := &http.Server{
		Addr:    cfg.Config.ListenAddr,
		Handler: handler,
	}

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down server...")
		server.Close()
	}()

	log.Info("Starting avtrackd server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
	if cfg.Config.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	cfg.MCPServer.LogStartup()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the avtrackd server",
		Description: "Start the HTTP server with API and MCP endpoints",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load(cmd)

			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr)

			store, err := storage.NewStorage(cfg.DataDir)
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			log.Info("Storage initialized", "backend", "SQLite", "path", cfg.DataDir)

			registry := netplan.DefaultRegistry()
			apiHandler := api.NewHandler(store, registry)
			mcpServer := mcp.NewServer(store, registry, cfg.MCPAuthToken)

			var snapshotter *worker.Snapshotter
			if cfg.SnapshotsEnabled {
				exportStore, ok := store.(storage.ExportStorage)
				if !ok {
					log.Warn("Storage does not support snapshots, scheduler disabled")
				} else {
					snapshotter = worker.NewSnapshotter(exportStore, cfg.SnapshotDir, cfg.SnapshotSchedule, cfg.SnapshotKeep)
					if err := snapshotter.Start(); err != nil {
						log.Error("Failed to start snapshot scheduler", "error", err)
						return err
					}
					defer snapshotter.Stop()
				}
			}

			return RunServer(&ServerConfig{
				Config:      cfg,
				Store:       store,
				APIHandler:  apiHandler,
				MCPServer:   mcpServer,
				Snapshotter: snapshotter,
			})
		},
	}
}
