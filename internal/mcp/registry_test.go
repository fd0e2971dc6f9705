package mcp

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"

	"github.com/restkit/restkit-mcp/internal/config"
)

func TestRegistry_EmptyPolicyPermitsAll(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{})
	assert.True(t, r.Permitted("search_docs"))
	assert.True(t, r.Permitted("anything"))
}

func TestRegistry_DenyWins(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{
		Allow: []string{"search_docs"},
		Deny:  []string{"search_docs"},
	})
	assert.False(t, r.Permitted("search_docs"))
}

func TestRegistry_AllowListRestricts(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{Allow: []string{"navigate_docs"}})
	assert.True(t, r.Permitted("navigate_docs"))
	assert.False(t, r.Permitted("search_docs"))
}

func TestRegistry_ApplyAttachesPermittedSorted(t *testing.T) {
	r := NewRegistry(config.ToolsConfig{Deny: []string{"b_tool"}})

	var ran []string
	for _, name := range []string{"c_tool", "a_tool", "b_tool"} {
		name := name
		r.Register(name, func(*mcp.Server) { ran = append(ran, name) })
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0.0.0"}, nil)
	attached := r.Apply(server)

	assert.Equal(t, []string{"a_tool", "c_tool"}, attached)
	assert.ElementsMatch(t, []string{"a_tool", "c_tool"}, ran)
}

func TestNewServer_RegistersConfiguredTools(t *testing.T) {
	f := newFixture(t, defaultCorpus())

	server := NewServer(&Config{
		Indexer:   f.indexer,
		Parser:    f.parser,
		Generator: newTestGenerator(t),
		Tools:     config.ToolsConfig{Deny: []string{"generate_filter"}},
		Index:     f.cfg.Index,
	})

	tools := server.Tools()
	assert.Contains(t, tools, "search_docs")
	assert.Contains(t, tools, "get_code_examples")
	assert.Contains(t, tools, "navigate_docs")
	assert.Contains(t, tools, "generate_repository")
	assert.NotContains(t, tools, "generate_filter")
	assert.NotNil(t, server.MCPServer())
}
