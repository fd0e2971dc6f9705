// Package app wires the shared dependency graph used by both the MCP server
// and the CLI.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/restkit/restkit-mcp/internal/cache"
	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/indexer"
	"github.com/restkit/restkit-mcp/internal/markdown"
	"github.com/restkit/restkit-mcp/internal/scaffold"
)

// App holds the constructed components for one process.
type App struct {
	Cfg       *config.Config
	Store     *cache.Store
	Parser    *markdown.Parser
	Indexer   *indexer.Indexer
	Generator *scaffold.Generator

	closers []io.Closer
}

// New builds the dependency graph from configuration. The redis backend is
// dialed eagerly so misconfiguration fails at startup, not mid-request.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	var backend cache.Backend
	switch cfg.Cache.Backend {
	case "redis":
		redisBackend, err := cache.NewRedisBackend(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting cache backend: %w", err)
		}
		a.closers = append(a.closers, redisBackend)
		backend = redisBackend
	default:
		backend = cache.NewMemoryBackend()
	}

	a.Store = cache.New(backend, cache.Options{
		Prefix:  cfg.Cache.Prefix,
		TTL:     cfg.Cache.TTL,
		Enabled: cfg.Cache.Enabled,
	})
	a.Parser = markdown.NewParser(a.Store, cfg.Docs, cfg.Index.SummaryLength)
	a.Indexer = indexer.New(a.Parser, a.Store, cfg.Docs, cfg.Index)
	a.Generator = scaffold.NewGenerator(cfg.Scaffold)
	return a, nil
}

// Close releases backend connections.
func (a *App) Close() {
	for _, closer := range a.closers {
		_ = closer.Close()
	}
}
