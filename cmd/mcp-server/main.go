// Package main provides the MCP server entry point for RestKit
// documentation and scaffolding tools.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/restkit/restkit-mcp/internal/app"
	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/logging"
	mcpserver "github.com/restkit/restkit-mcp/internal/mcp"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(os.Getenv("RESTKIT_CONFIG"))
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Indexer:   application.Indexer,
		Parser:    application.Parser,
		Generator: application.Generator,
		Tools:     cfg.Tools,
		Index:     cfg.Index,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(application.Store))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	addr := "0.0.0.0:" + cfg.Server.Port

	if cfg.Server.HTTPMode {
		// HTTP mode: serve MCP over HTTP for remote clients.
		slog.Info("starting HTTP server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Stdio mode: run MCP over stdin/stdout for local clients, with the
	// health endpoint in the background for local testing.
	go func() {
		slog.Info("starting health server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Warn("health server error", "error", err)
		}
	}()

	slog.Info("starting RestKit docs MCP server (stdio mode)")
	if err := server.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
