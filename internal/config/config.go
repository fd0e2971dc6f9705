// Package config loads and validates application configuration from a YAML
// file with environment-variable overrides. It provides typed structs for
// every subsystem (docs corpus, index, cache, scaffolding, sync, tools).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Docs     DocsConfig     `yaml:"docs"`
	Index    IndexConfig    `yaml:"index"`
	Cache    CacheConfig    `yaml:"cache"`
	Scaffold ScaffoldConfig `yaml:"scaffold"`
	Sync     SyncConfig     `yaml:"sync"`
	Tools    ToolsConfig    `yaml:"tools"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings for remote MCP mode.
type ServerConfig struct {
	Port     string `yaml:"port"`
	HTTPMode bool   `yaml:"httpMode"`
}

// DocsConfig describes where the documentation corpus lives and how paths
// map to categories.
type DocsConfig struct {
	// PrimaryPath is the main documentation root, scanned recursively.
	PrimaryPath string `yaml:"primaryPath"`
	// LegacyPath is an optional secondary root for older documentation.
	LegacyPath string `yaml:"legacyPath"`
	// Categories maps a category key to its display name and the path
	// suffix patterns that select it. First match wins.
	Categories map[string]CategoryConfig `yaml:"categories"`
}

// CategoryConfig is one entry of the category taxonomy.
type CategoryConfig struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// IndexConfig controls tokenization, scoring, and result shaping.
type IndexConfig struct {
	TitleBoost     float64 `yaml:"titleBoost"`
	HeadingBoost   float64 `yaml:"headingBoost"`
	CodeBoost      float64 `yaml:"codeBoost"`
	ContentBoost   float64 `yaml:"contentBoost"`
	MinTokenLength int     `yaml:"minTokenLength"`
	SummaryLength  int     `yaml:"summaryLength"`
	SnippetLength  int     `yaml:"snippetLength"`
	DefaultLimit   int     `yaml:"defaultLimit"`
	MaxResults     int     `yaml:"maxResults"`
}

// CacheConfig holds cache backend selection and namespacing.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend"` // "memory" or "redis"
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection parameters for the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// ScaffoldConfig holds defaults for generated source files.
type ScaffoldConfig struct {
	// ProjectRoot is the application tree scanned for artifact placement.
	ProjectRoot string `yaml:"projectRoot"`
	// Namespace is the base namespace for generated classes.
	Namespace string `yaml:"namespace"`
	// ModelNamespace is where associated data models are assumed to live.
	ModelNamespace string `yaml:"modelNamespace"`
}

// SyncConfig identifies the GitHub source of the documentation corpus.
type SyncConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	BasePath string `yaml:"basePath"`
	// Token authenticates API calls for higher rate limits. Usually set
	// through the GITHUB_TOKEN environment variable, not the config file.
	Token string `yaml:"token"`
}

// ToolsConfig applies an allow/deny list to registered MCP tools. An empty
// allow list permits everything not denied.
type ToolsConfig struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Docs: DocsConfig{
			PrimaryPath: "docs",
			Categories: map[string]CategoryConfig{
				"installation": {
					Name:     "Installation & Setup",
					Patterns: []string{"installation.md", "quickstart.md", "upgrade.md"},
				},
				"repositories": {
					Name:     "Repositories",
					Patterns: []string{"repositories/*.md", "repository-*.md"},
				},
				"fields": {
					Name:     "Fields & Getters",
					Patterns: []string{"fields/*.md", "field-*.md", "getters.md"},
				},
				"filters": {
					Name:     "Filtering & Search",
					Patterns: []string{"filtering/*.md", "filters.md", "search/*.md"},
				},
				"actions": {
					Name:     "Actions",
					Patterns: []string{"actions/*.md", "actions.md"},
				},
				"auth": {
					Name:     "Authentication & Authorization",
					Patterns: []string{"auth/*.md", "authentication.md", "authorization.md"},
				},
				"performance": {
					Name:     "Performance",
					Patterns: []string{"performance/*.md", "performance.md"},
				},
				"testing": {
					Name:     "Testing",
					Patterns: []string{"testing/*.md", "testing.md"},
				},
			},
		},
		Index: IndexConfig{
			TitleBoost:     3.0,
			HeadingBoost:   2.0,
			CodeBoost:      1.5,
			ContentBoost:   1.0,
			MinTokenLength: 2,
			SummaryLength:  300,
			SnippetLength:  200,
			DefaultLimit:   5,
			MaxResults:     20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			Prefix:  "restkit_mcp",
			TTL:     time.Hour,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		Scaffold: ScaffoldConfig{
			ProjectRoot:    ".",
			Namespace:      "App\\Restify",
			ModelNamespace: "App\\Models",
		},
		Sync: SyncConfig{
			Owner:    "restkit",
			Repo:     "docs",
			BasePath: "content",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given YAML file, merges it over the
// defaults, and applies environment-variable overrides. An empty path loads
// defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for configuration values that cannot be recovered from.
func (c *Config) Validate() error {
	if c.Docs.PrimaryPath == "" {
		return fmt.Errorf("docs.primaryPath must not be empty")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Index.MinTokenLength < 1 {
		return fmt.Errorf("index.minTokenLength must be at least 1")
	}
	if c.Index.MaxResults < 1 {
		return fmt.Errorf("index.maxResults must be at least 1")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RESTKIT_DOCS_PATH"); v != "" {
		c.Docs.PrimaryPath = v
	}
	if v := os.Getenv("RESTKIT_LEGACY_DOCS_PATH"); v != "" {
		c.Docs.LegacyPath = v
	}
	if v := os.Getenv("RESTKIT_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("RESTKIT_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v := os.Getenv("RESTKIT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("RESTKIT_PROJECT_ROOT"); v != "" {
		c.Scaffold.ProjectRoot = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Sync.Token = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		c.Server.HTTPMode = v == "true"
	}
	if v := os.Getenv("RESTKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RESTKIT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}
