package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"

	"github.com/restkit/restkit-mcp/internal/config"
	"github.com/restkit/restkit-mcp/internal/logging"
)

// Fetcher downloads markdown documentation from a GitHub repository.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
	logger   *slog.Logger
}

// SyncResult summarizes one corpus sync.
type SyncResult struct {
	TotalDocs   int
	WrittenDocs int
	FailedDocs  []FailedDoc
	CommitSHA   string
	Duration    time.Duration
}

// FailedDoc records a document that could not be fetched or written.
type FailedDoc struct {
	Path   string
	Reason string
}

// NewFetcher creates a fetcher for the configured documentation source.
func NewFetcher(client *Client, cfg config.SyncConfig) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    cfg.Owner,
		repo:     cfg.Repo,
		basePath: cfg.BasePath,
		logger:   logging.WithComponent("sync"),
	}
}

// ListDocs recursively lists all markdown files under the base path.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDocsRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listDocsRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				docs = append(docs, itemRelPath)
			}
		case "dir":
			subDocs, err := f.listDocsRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}
	return docs, nil
}

// FetchDoc fetches the content of one markdown file.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (string, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", fullPath, err)
	}
	return string(content), nil
}

// LatestCommitSHA returns the SHA of the most recent commit touching the
// docs directory.
func (f *Fetcher) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(ctx, f.owner, f.repo, &github.CommitsListOptions{
		Path:        f.basePath,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("listing commits: %w", err)
	}
	if len(commits) == 0 || commits[0].SHA == nil {
		return "", fmt.Errorf("no commits found for path %s", f.basePath)
	}
	return *commits[0].SHA, nil
}

// SyncTo downloads every markdown file under the base path into destDir,
// preserving relative layout. Individual failures are recorded and skipped
// so a partial corpus still lands on disk.
func (f *Fetcher) SyncTo(ctx context.Context, destDir string) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{}

	sha, err := f.LatestCommitSHA(ctx)
	if err != nil {
		return nil, err
	}
	result.CommitSHA = sha
	f.logger.Info("starting docs sync", "repo", f.owner+"/"+f.repo, "commit", sha)

	paths, err := f.ListDocs(ctx)
	if err != nil {
		return nil, err
	}
	result.TotalDocs = len(paths)

	for _, relPath := range paths {
		content, err := f.FetchDoc(ctx, relPath)
		if err != nil {
			f.logger.Warn("fetch failed", "path", relPath, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{Path: relPath, Reason: err.Error()})
			continue
		}
		dest := filepath.Join(destDir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			result.FailedDocs = append(result.FailedDocs, FailedDoc{Path: relPath, Reason: err.Error()})
			continue
		}
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			result.FailedDocs = append(result.FailedDocs, FailedDoc{Path: relPath, Reason: err.Error()})
			continue
		}
		result.WrittenDocs++
	}

	result.Duration = time.Since(start)
	f.logger.Info("docs sync complete",
		"written", result.WrittenDocs,
		"failed", len(result.FailedDocs),
		"duration", result.Duration,
	)
	return result, nil
}
