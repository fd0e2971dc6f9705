package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/indexer"
	"github.com/restkit/restkit-mcp/internal/logging"
	"github.com/restkit/restkit-mcp/internal/markdown"
	"github.com/restkit/restkit-mcp/internal/scaffold"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server  *mcp.Server
	indexer *indexer.Indexer
	tools   []string
}

// Config holds server dependencies, assembled by the composition root.
type Config struct {
	Indexer   *indexer.Indexer
	Parser    *markdown.Parser
	Generator *scaffold.Generator
	Tools     config.ToolsConfig
	Index     config.IndexConfig
}

// NewServer creates a configured MCP server with all permitted tools
// registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "restkit-docs-server",
		Version: "v0.1.0",
	}
	server := mcp.NewServer(impl, nil)

	registry := NewRegistry(cfg.Tools)

	registry.Register("search_docs", func(s *mcp.Server) {
		mcp.AddTool(s, &mcp.Tool{
			Name:        "search_docs",
			Description: "Search RestKit documentation by relevance. Accepts multiple queries and an optional category scope; returns ranked results with snippets and matching sections.",
		}, makeSearchHandler(cfg.Indexer, cfg.Index))
	})

	registry.Register("get_code_examples", func(s *mcp.Server) {
		mcp.AddTool(s, &mcp.Tool{
			Name:        "get_code_examples",
			Description: "Retrieve code examples from RestKit documentation for a topic, optionally filtered by language, ranked by blended document and code relevance.",
		}, makeExamplesHandler(cfg.Indexer, cfg.Index))
	})

	registry.Register("navigate_docs", func(s *mcp.Server) {
		mcp.AddTool(s, &mcp.Tool{
			Name:        "navigate_docs",
			Description: "Browse RestKit documentation structure: overview, category listing, category contents, or a single document with its outline.",
		}, makeNavigateHandler(cfg.Indexer, cfg.Parser))
	})

	generators := []struct {
		name        string
		kind        scaffold.Kind
		description string
	}{
		{"generate_repository", scaffold.KindRepository, "Generate a RestKit repository class for a model, with fields and validation rules."},
		{"generate_action", scaffold.KindAction, "Generate a RestKit action class (invokable or standalone)."},
		{"generate_getter", scaffold.KindGetter, "Generate a RestKit getter class (invokable or standalone)."},
		{"generate_filter", scaffold.KindFilter, "Generate a RestKit filter class (match, sort, or advanced)."},
	}
	for _, g := range generators {
		g := g
		registry.Register(g.name, func(s *mcp.Server) {
			mcp.AddTool(s, &mcp.Tool{
				Name:        g.name,
				Description: g.description,
			}, makeGenerateHandler(cfg.Generator, g.kind))
		})
	}

	attached := registry.Apply(server)
	logging.WithComponent("mcp").Info("tools registered", "tools", attached)

	return &Server{
		server:  server,
		indexer: cfg.Indexer,
		tools:   attached,
	}
}

// Tools returns the names of the attached tools.
func (s *Server) Tools() []string { return s.tools }

// Run starts the server with stdio transport (blocks until client
// disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
