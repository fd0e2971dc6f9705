// Package github fetches the RestKit documentation corpus from a GitHub
// repository into the local docs root.
package github

import (
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"

	"github.com/restkit/restkit-mcp/internal/config"
)

// Client wraps the GitHub API client behind a secondary-rate-limit waiter.
type Client struct {
	*github.Client
}

// NewClient builds the API client for the configured documentation source.
// A configured token raises the rate limit; without one the client runs
// unauthenticated, which is enough for small corpora.
func NewClient(cfg config.SyncConfig) (*Client, error) {
	waiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	apiClient := github.NewClient(waiter)
	if cfg.Token != "" {
		apiClient = apiClient.WithAuthToken(cfg.Token)
	}
	return &Client{Client: apiClient}, nil
}
