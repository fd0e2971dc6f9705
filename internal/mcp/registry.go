package mcp

import (
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/restkit/restkit-mcp/internal/config"
)

// Registry is a constructed tool registry owned by the server composition
// root. Tools register explicitly by name; an allow/deny list from config
// decides which ones are attached to the MCP server. No global state, no
// filesystem discovery.
type Registry struct {
	entries []registryEntry
	allow   map[string]struct{}
	deny    map[string]struct{}
}

type registryEntry struct {
	name     string
	register func(*mcp.Server)
}

// NewRegistry creates a Registry with the given allow/deny policy. An empty
// allow list permits every tool not denied.
func NewRegistry(cfg config.ToolsConfig) *Registry {
	r := &Registry{}
	if len(cfg.Allow) > 0 {
		r.allow = make(map[string]struct{}, len(cfg.Allow))
		for _, name := range cfg.Allow {
			r.allow[name] = struct{}{}
		}
	}
	if len(cfg.Deny) > 0 {
		r.deny = make(map[string]struct{}, len(cfg.Deny))
		for _, name := range cfg.Deny {
			r.deny[name] = struct{}{}
		}
	}
	return r
}

// Register records a tool under name. The register callback runs during
// Apply only if the policy permits the tool.
func (r *Registry) Register(name string, register func(*mcp.Server)) {
	r.entries = append(r.entries, registryEntry{name: name, register: register})
}

// Permitted reports whether the policy allows name.
func (r *Registry) Permitted(name string) bool {
	if _, denied := r.deny[name]; denied {
		return false
	}
	if r.allow == nil {
		return true
	}
	_, allowed := r.allow[name]
	return allowed
}

// Apply attaches every permitted tool to the server and returns their
// names, sorted.
func (r *Registry) Apply(server *mcp.Server) []string {
	var attached []string
	for _, entry := range r.entries {
		if !r.Permitted(entry.name) {
			continue
		}
		entry.register(server)
		attached = append(attached, entry.name)
	}
	sort.Strings(attached)
	return attached
}
